// Package runner builds a profile.RowSource and profile.Options from a
// config.Config, shared by the CLI and the MCP tool front end so both
// surfaces configure a run identically.
package runner

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
	"go.uber.org/zap"

	"github.com/kasuganosora/colprofiler/internal/overflow"
	"github.com/kasuganosora/colprofiler/internal/profile"
	"github.com/kasuganosora/colprofiler/internal/rowsource"
	"github.com/kasuganosora/colprofiler/internal/rowsource/sqlsource"
	"github.com/kasuganosora/colprofiler/pkg/config"
)

var sqlDrivers = map[string]string{"mysql": "mysql", "postgres": "postgres", "sqlite": "sqlite"}

// BuildRowSource constructs the profile.RowSource named by cfg.Kind. The
// returned close func, when non-nil, releases a *sql.DB opened for the
// mysql/postgres/sqlite kinds; the other kinds manage their own handles
// per pass and need no extra cleanup.
func BuildRowSource(cfg config.RowSourceConfig) (profile.RowSource, func(), error) {
	switch cfg.Kind {
	case "memory":
		return rowsource.NewMemory(nil), nil, nil
	case "csv":
		return &rowsource.CSV{Path: cfg.Path, Delimiter: ',', HasHeader: true}, nil, nil
	case "excel":
		return &rowsource.Excel{Path: cfg.Path, HasHeader: true}, nil, nil
	case "parquet":
		return &rowsource.Parquet{Path: cfg.Path}, nil, nil
	case "mysql", "postgres", "sqlite":
		driver, ok := sqlDrivers[cfg.Kind]
		if !ok {
			return nil, nil, fmt.Errorf("unknown sql row source kind %q", cfg.Kind)
		}
		db, err := sql.Open(driver, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", driver, err)
		}
		query := cfg.Query
		if query == "" {
			query = fmt.Sprintf("SELECT * FROM %s", cfg.Table)
		}
		src := &sqlsource.Source{DB: db, Query: query}
		return src, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown row source kind %q", cfg.Kind)
	}
}

// BuildOptions turns the Run/Overflow/Log sections of cfg into a
// profile.Options, wiring the disk-backed overflow factory and a zap
// logger when configured.
func BuildOptions(cfg *config.Config) (profile.Options, error) {
	opts := profile.DefaultOptions()
	opts.CombinationsPerPass = cfg.Run.CombinationsPerPass
	opts.ValueListCap = cfg.Run.ValueListCap

	if cfg.Overflow.Threshold > 0 {
		opts.OverflowThreshold = cfg.Overflow.Threshold
		opts.OverflowFactory = overflow.Factory(cfg.Overflow.BaseDir)
	}

	logger, err := BuildLogger(cfg.Log)
	if err != nil {
		return opts, err
	}
	opts.Logger = logger
	return opts, nil
}

// BuildLogger constructs a zap.Logger from a LogConfig.
func BuildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg.Level = level
	return zcfg.Build()
}

// ParseColumns turns a list of column names, in row order, into ordinal-
// tagged profile.Column values. Callers split the comma-separated flag or
// parameter themselves.
func ParseColumns(names []string) []profile.Column {
	columns := make([]profile.Column, len(names))
	for i, name := range names {
		columns[i] = profile.Column{Ordinal: i, Name: name}
	}
	return columns
}
