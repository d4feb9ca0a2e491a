// Command profilerctl runs one profiling pass over a configured row source
// and prints the resulting Distributions, Uniques, and FunctionalDependencies.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/kasuganosora/colprofiler/internal/profile"
	"github.com/kasuganosora/colprofiler/internal/runner"
	"github.com/kasuganosora/colprofiler/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "path to a profiler.json config file (defaults to $PROFILER_CONFIG or the conventional paths)")
	columnsFlag := flag.String("columns", "", "comma-separated column names, in row order")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if *columnsFlag == "" {
		log.Fatal("profilerctl: -columns is required")
	}
	columns := runner.ParseColumns(strings.Split(*columnsFlag, ","))

	rows, closeRows, err := runner.BuildRowSource(cfg.RowSource)
	if err != nil {
		log.Fatalf("row source: %v", err)
	}
	if closeRows != nil {
		defer closeRows()
	}

	opts, err := runner.BuildOptions(cfg)
	if err != nil {
		log.Fatalf("options: %v", err)
	}

	result, err := profile.Run(context.Background(), rows, columns, opts)
	if err != nil {
		log.Fatalf("profile: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toReport(result, columns)); err != nil {
		log.Fatalf("encode report: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	return config.LoadConfigOrDefault(), nil
}

// report is the JSON-serializable shape of a Profile, with column ordinals
// resolved to their configured names.
type report struct {
	RowCount               int64                 `json:"rowCount"`
	Distributions          []distributionReport  `json:"distributions"`
	Uniques                [][]string             `json:"uniques"`
	FunctionalDependencies []fdReport             `json:"functionalDependencies"`
	Trace                  *profile.TraceSummary  `json:"trace,omitempty"`
}

type distributionReport struct {
	Columns             []string `json:"columns"`
	Cardinality         int64    `json:"cardinality"`
	NullCount           int64    `json:"nullCount"`
	ExpectedCardinality float64  `json:"expectedCardinality"`
	Minimal             bool     `json:"minimal"`
}

type fdReport struct {
	Determinant []string `json:"determinant"`
	Dependent   string   `json:"dependent"`
}

func toReport(p *profile.Profile, columns []profile.Column) report {
	name := func(members []int) []string {
		names := make([]string, len(members))
		for i, ord := range members {
			names[i] = columns[ord].Name
		}
		return names
	}

	r := report{RowCount: p.RowCount, Trace: p.Trace}
	for _, d := range p.Distributions {
		r.Distributions = append(r.Distributions, distributionReport{
			Columns:             name(d.Columns.Members()),
			Cardinality:         d.Cardinality,
			NullCount:           d.NullCount,
			ExpectedCardinality: d.ExpectedCardinality,
			Minimal:             d.Minimal,
		})
	}
	for _, u := range p.Uniques {
		r.Uniques = append(r.Uniques, name(u.Columns.Members()))
	}
	for _, fd := range p.FunctionalDependencies {
		r.FunctionalDependencies = append(r.FunctionalDependencies, fdReport{
			Determinant: name(fd.Determinant.Members()),
			Dependent:   columns[fd.Dependent].Name,
		})
	}
	return r
}
