package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level profilerctl configuration.
type Config struct {
	Log       LogConfig       `json:"log"`
	Run       RunConfig       `json:"run"`
	RowSource RowSourceConfig `json:"row_source"`
	Overflow  OverflowConfig  `json:"overflow"`
}

// LogConfig controls the diagnostic trace logger.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json or console
}

// RunConfig holds the tunable run settings. CombinationsPerPass and
// ValueListCap are copied into profile.Options; SurpriseThreshold is not
// read when options are built, and the engine's interesting test uses its
// own fixed threshold.
type RunConfig struct {
	CombinationsPerPass int     `json:"combinations_per_pass"`
	ValueListCap        int     `json:"value_list_cap"`
	SurpriseThreshold   float64 `json:"surprise_threshold"`
}

// RowSourceConfig selects and configures the input adapter.
type RowSourceConfig struct {
	Kind  string `json:"kind"` // memory, csv, excel, parquet, mysql, postgres, sqlite
	Path  string `json:"path"`
	DSN   string `json:"dsn"`
	Table string `json:"table"`
	Query string `json:"query"`
}

// OverflowConfig controls the disk-backed overflow set for composite
// collectors.
type OverflowConfig struct {
	Threshold int           `json:"threshold"` // 0 disables overflow
	BaseDir   string        `json:"base_dir"`
	TTL       time.Duration `json:"ttl"` // reserved for a future scratch-directory GC pass
}

// DefaultConfig returns a Config with every field at its documented
// default.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Run: RunConfig{
			CombinationsPerPass: 100,
			ValueListCap:        20,
			SurpriseThreshold:   0.3,
		},
		RowSource: RowSourceConfig{
			Kind: "memory",
		},
		Overflow: OverflowConfig{
			Threshold: 0,
			BaseDir:   "./profiler-overflow",
		},
	}
}

// LoadConfig reads configPath and overlays it onto DefaultConfig. An empty
// configPath returns DefaultConfig unchanged.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config: file does not exist: %s", configPath)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", configPath, err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", configPath, err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault tries $PROFILER_CONFIG, then a few conventional
// paths, and finally falls back to DefaultConfig without failing the
// caller.
func LoadConfigOrDefault() *Config {
	if envPath := os.Getenv("PROFILER_CONFIG"); envPath != "" {
		if cfg, err := LoadConfig(envPath); err == nil {
			return cfg
		}
	}
	for _, path := range []string{"profiler.json", "./config/profiler.json", "/etc/colprofiler/profiler.json"} {
		if abs, err := filepath.Abs(path); err == nil {
			if cfg, err := LoadConfig(abs); err == nil {
				return cfg
			}
		}
	}
	return DefaultConfig()
}

func validateConfig(cfg *Config) error {
	if cfg.Run.CombinationsPerPass <= 2 {
		return fmt.Errorf("config: run.combinations_per_pass must be > 2")
	}
	if cfg.Run.ValueListCap < 0 {
		return fmt.Errorf("config: run.value_list_cap must be >= 0")
	}
	switch cfg.RowSource.Kind {
	case "memory", "csv", "excel", "parquet", "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown row_source.kind %q", cfg.RowSource.Kind)
	}
	return nil
}
