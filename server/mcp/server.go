// Package mcp exposes the profiler as an MCP tool server, grounded on the
// engine's streamable-HTTP MCP front end: a bearer-token auth context
// wrapping a small set of registered tools.
package mcp

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kasuganosora/colprofiler/pkg/config"
)

type contextKey string

const (
	ctxKeyMCPClient  contextKey = "mcp_client"
	ctxKeyMCPRequest contextKey = "mcp_request"
)

// Server is the MCP protocol front end for profilerctl.
type Server struct {
	cfg     *config.Config
	apiKeys map[string]bool
	logger  *zap.Logger
}

// NewServer builds a Server. apiKeys, when non-empty, requires every tool
// call to present one of them as a Bearer token; an empty set disables
// auth enforcement (suitable for local/dev use).
func NewServer(cfg *config.Config, apiKeys []string, logger *zap.Logger) *Server {
	keys := make(map[string]bool, len(apiKeys))
	for _, k := range apiKeys {
		keys[k] = true
	}
	return &Server{cfg: cfg, apiKeys: keys, logger: logger}
}

// Start starts the MCP server (blocking).
func (s *Server) Start(addr string) error {
	deps := &ToolDeps{Cfg: s.cfg, Logger: s.logger}

	mcpSrv := mcpserver.NewMCPServer(
		"colprofiler",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	profileTool := mcp.NewTool("profile_table",
		mcp.WithDescription("Run a bounded-memory column-set profiling pass over a row source and report cardinality, uniqueness, and functional dependencies."),
		mcp.WithString("columns", mcp.Description("Comma-separated column names, in row order"), mcp.Required()),
		mcp.WithString("row_source_kind", mcp.Description("memory, csv, excel, parquet, mysql, postgres, or sqlite (defaults to the server's configured kind)")),
		mcp.WithString("path", mcp.Description("File path, for csv/excel/parquet")),
		mcp.WithString("dsn", mcp.Description("Connection string, for mysql/postgres/sqlite")),
		mcp.WithString("table", mcp.Description("Table name; used to build a default SELECT * query")),
		mcp.WithString("query", mcp.Description("Explicit SQL query, overriding table")),
		mcp.WithString("combinations_per_pass", mcp.Description("Override Options.CombinationsPerPass")),
	)

	listKindsTool := mcp.NewTool("list_row_source_kinds",
		mcp.WithDescription("List the row source kinds profile_table accepts"),
	)

	mcpSrv.AddTool(profileTool, s.requireAuth(deps.HandleProfileTable))
	mcpSrv.AddTool(listKindsTool, s.requireAuth(deps.HandleListRowSourceKinds))

	httpServer := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithHTTPContextFunc(s.authContextFunc()),
	)

	if s.logger != nil {
		s.logger.Info("mcp server starting", zap.String("addr", addr))
	}
	return httpServer.Start(addr)
}

// requireAuth rejects tool calls that carry no authenticated client when
// the server was configured with a non-empty API key set.
func (s *Server) requireAuth(handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if len(s.apiKeys) > 0 && getClient(ctx) == "" {
			return mcp.NewToolResultError("unauthorized"), nil
		}
		return handler(ctx, request)
	}
}

// authContextFunc validates a Bearer token against the server's configured
// API keys and stores the HTTP request in context for IP extraction.
func (s *Server) authContextFunc() mcpserver.HTTPContextFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		ctx = context.WithValue(ctx, ctxKeyMCPRequest, r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			return ctx
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return ctx
		}
		key := parts[1]
		if s.apiKeys[key] {
			ctx = context.WithValue(ctx, ctxKeyMCPClient, key)
		}
		return ctx
	}
}

func getClient(ctx context.Context) string {
	client, _ := ctx.Value(ctxKeyMCPClient).(string)
	return client
}

func getClientIP(ctx context.Context) string {
	r, ok := ctx.Value(ctxKeyMCPRequest).(*http.Request)
	if !ok || r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	return host
}

func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}
