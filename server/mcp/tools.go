package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kasuganosora/colprofiler/internal/profile"
	"github.com/kasuganosora/colprofiler/internal/runner"
	"github.com/kasuganosora/colprofiler/pkg/config"
)

// ToolDeps holds shared dependencies for MCP tool handlers.
type ToolDeps struct {
	Cfg    *config.Config
	Logger *zap.Logger
}

// HandleProfileTable runs one profiling pass over the row source described
// by the request and reports its Distributions, Uniques, and
// FunctionalDependencies as tab-delimited text.
func (d *ToolDeps) HandleProfileTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	columnsParam := request.GetString("columns", "")
	if columnsParam == "" {
		return mcp.NewToolResultError("columns parameter is required"), nil
	}
	columns := runner.ParseColumns(strings.Split(columnsParam, ","))

	rsCfg := d.Cfg.RowSource
	if kind := request.GetString("row_source_kind", ""); kind != "" {
		rsCfg.Kind = kind
	}
	if path := request.GetString("path", ""); path != "" {
		rsCfg.Path = path
	}
	if dsn := request.GetString("dsn", ""); dsn != "" {
		rsCfg.DSN = dsn
	}
	if table := request.GetString("table", ""); table != "" {
		if !isValidIdentifier(table) {
			return mcp.NewToolResultError("invalid table name"), nil
		}
		rsCfg.Table = table
	}
	if query := request.GetString("query", ""); query != "" {
		rsCfg.Query = query
	}

	start := time.Now()
	clientIP := getClientIP(ctx)

	rows, closeRows, err := runner.BuildRowSource(rsCfg)
	if err != nil {
		d.logToolCall(clientIP, "profile_table", time.Since(start), false)
		return mcp.NewToolResultError(fmt.Sprintf("row source: %v", err)), nil
	}
	if closeRows != nil {
		defer closeRows()
	}

	opts, err := runner.BuildOptions(d.Cfg)
	if err != nil {
		d.logToolCall(clientIP, "profile_table", time.Since(start), false)
		return mcp.NewToolResultError(fmt.Sprintf("options: %v", err)), nil
	}
	if raw := request.GetString("combinations_per_pass", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return mcp.NewToolResultError("combinations_per_pass must be an integer"), nil
		}
		opts.CombinationsPerPass = n
	}

	result, err := profile.Run(ctx, rows, columns, opts)
	if err != nil {
		d.logToolCall(clientIP, "profile_table", time.Since(start), false)
		return mcp.NewToolResultError(fmt.Sprintf("profile failed: %v", err)), nil
	}

	d.logToolCall(clientIP, "profile_table", time.Since(start), true)
	return mcp.NewToolResultText(formatProfile(result, columns)), nil
}

// HandleListRowSourceKinds reports the row source kinds profile_table
// accepts.
func (d *ToolDeps) HandleListRowSourceKinds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString("Row source kinds:\n")
	for _, kind := range []string{"memory", "csv", "excel", "parquet", "mysql", "postgres", "sqlite"} {
		sb.WriteString("- " + kind + "\n")
	}
	d.logToolCall(getClientIP(ctx), "list_row_source_kinds", 0, true)
	return mcp.NewToolResultText(sb.String()), nil
}

func formatProfile(p *profile.Profile, columns []profile.Column) string {
	name := func(members []int) string {
		names := make([]string, len(members))
		for i, ord := range members {
			names[i] = columns[ord].Name
		}
		return strings.Join(names, ",")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "rows\t%d\n", p.RowCount)

	fmt.Fprintf(&sb, "\ndistributions (%d)\n", len(p.Distributions))
	sb.WriteString("columns\tcardinality\tnulls\texpected\n")
	for _, d := range p.Distributions {
		fmt.Fprintf(&sb, "%s\t%d\t%d\t%.2f\n", name(d.Columns.Members()), d.Cardinality, d.NullCount, d.ExpectedCardinality)
	}

	fmt.Fprintf(&sb, "\nunique keys (%d)\n", len(p.Uniques))
	for _, u := range p.Uniques {
		sb.WriteString(name(u.Columns.Members()) + "\n")
	}

	fmt.Fprintf(&sb, "\nfunctional dependencies (%d)\n", len(p.FunctionalDependencies))
	for _, fd := range p.FunctionalDependencies {
		fmt.Fprintf(&sb, "%s -> %s\n", name(fd.Determinant.Members()), columns[fd.Dependent].Name)
	}
	return sb.String()
}

func (d *ToolDeps) logToolCall(clientIP, toolName string, duration time.Duration, success bool) {
	if d.Logger == nil {
		return
	}
	d.Logger.Debug("mcp tool call",
		zap.String("tool", toolName),
		zap.String("client_ip", clientIP),
		zap.Duration("duration", duration),
		zap.Bool("success", success),
	)
}
