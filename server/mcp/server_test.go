package mcp

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/colprofiler/pkg/config"
)

func makeCallToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	var arguments interface{}
	if args != nil {
		arguments = map[string]any(args)
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: arguments,
		},
	}
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func writeCSV(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o644))
	return path
}

func setupDeps(t *testing.T, csvPath string) *ToolDeps {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RowSource.Kind = "csv"
	cfg.RowSource.Path = csvPath
	return &ToolDeps{Cfg: cfg}
}

func TestHandleProfileTable_CSV(t *testing.T) {
	path := writeCSV(t, "dept,job\nSALES,CLERK\nSALES,CLERK\nACCT,MANAGER\nACCT,CLERK\n")
	deps := setupDeps(t, path)

	req := makeCallToolRequest(map[string]interface{}{"columns": "dept,job"})
	result, err := deps.HandleProfileTable(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	text := textOf(t, result)
	assert.Contains(t, text, "rows\t4")
	assert.Contains(t, text, "distributions")
	assert.Contains(t, text, "unique keys")
	assert.Contains(t, text, "functional dependencies")
}

func TestHandleProfileTable_MissingColumns(t *testing.T) {
	deps := setupDeps(t, writeCSV(t, "a\n1\n"))
	req := makeCallToolRequest(map[string]interface{}{})
	result, err := deps.HandleProfileTable(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleProfileTable_InvalidTableName(t *testing.T) {
	deps := setupDeps(t, writeCSV(t, "a\n1\n"))
	req := makeCallToolRequest(map[string]interface{}{
		"columns": "a",
		"table":   "users; DROP TABLE x",
	})
	result, err := deps.HandleProfileTable(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "invalid table name")
}

func TestHandleProfileTable_BadCombinationsPerPass(t *testing.T) {
	deps := setupDeps(t, writeCSV(t, "a\n1\n2\n3\n"))
	req := makeCallToolRequest(map[string]interface{}{
		"columns":               "a",
		"combinations_per_pass": "not-a-number",
	})
	result, err := deps.HandleProfileTable(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleProfileTable_RowSourceOverride(t *testing.T) {
	path := writeCSV(t, "a,b\n1,x\n2,y\n")
	deps := &ToolDeps{Cfg: config.DefaultConfig()} // defaults to memory kind

	req := makeCallToolRequest(map[string]interface{}{
		"columns":         "a,b",
		"row_source_kind": "csv",
		"path":            path,
	})
	result, err := deps.HandleProfileTable(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, textOf(t, result), "rows\t2")
}

func TestHandleListRowSourceKinds(t *testing.T) {
	deps := &ToolDeps{Cfg: config.DefaultConfig()}
	result, err := deps.HandleListRowSourceKinds(context.Background(), makeCallToolRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := textOf(t, result)
	assert.Contains(t, text, "memory")
	assert.Contains(t, text, "mysql")
}

func TestNewServer_Constructor(t *testing.T) {
	s := NewServer(config.DefaultConfig(), []string{"key-1"}, nil)
	assert.NotNil(t, s)
	assert.True(t, s.apiKeys["key-1"])
}

func TestRequireAuth(t *testing.T) {
	s := NewServer(config.DefaultConfig(), []string{"key-1"}, nil)
	handler := s.requireAuth(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})

	t.Run("unauthenticated", func(t *testing.T) {
		result, err := handler(context.Background(), makeCallToolRequest(nil))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, textOf(t, result), "unauthorized")
	})

	t.Run("authenticated", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ctxKeyMCPClient, "key-1")
		result, err := handler(ctx, makeCallToolRequest(nil))
		require.NoError(t, err)
		assert.False(t, result.IsError)
	})

	t.Run("no keys configured allows anyone", func(t *testing.T) {
		open := NewServer(config.DefaultConfig(), nil, nil)
		h := open.requireAuth(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})
		result, err := h(context.Background(), makeCallToolRequest(nil))
		require.NoError(t, err)
		assert.False(t, result.IsError)
	})
}

func TestAuthContextFunc(t *testing.T) {
	s := NewServer(config.DefaultConfig(), []string{"valid-key"}, nil)
	authFn := s.authContextFunc()

	t.Run("no auth header", func(t *testing.T) {
		r, _ := http.NewRequest("GET", "/", nil)
		ctx := authFn(context.Background(), r)
		assert.Equal(t, "", getClient(ctx))
	})

	t.Run("invalid auth format", func(t *testing.T) {
		r, _ := http.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Basic abc123")
		ctx := authFn(context.Background(), r)
		assert.Equal(t, "", getClient(ctx))
	})

	t.Run("wrong key", func(t *testing.T) {
		r, _ := http.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer wrong-key")
		ctx := authFn(context.Background(), r)
		assert.Equal(t, "", getClient(ctx))
	})

	t.Run("valid key", func(t *testing.T) {
		r, _ := http.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer valid-key")
		ctx := authFn(context.Background(), r)
		assert.Equal(t, "valid-key", getClient(ctx))
	})
}

func TestGetClientIP_FromContext(t *testing.T) {
	t.Run("no request in context", func(t *testing.T) {
		assert.Equal(t, "", getClientIP(context.Background()))
	})

	t.Run("X-Forwarded-For", func(t *testing.T) {
		r, _ := http.NewRequest("GET", "/", nil)
		r.Header.Set("X-Forwarded-For", "10.1.2.3, 10.4.5.6")
		ctx := context.WithValue(context.Background(), ctxKeyMCPRequest, r)
		assert.Equal(t, "10.1.2.3", getClientIP(ctx))
	})

	t.Run("X-Real-IP", func(t *testing.T) {
		r, _ := http.NewRequest("GET", "/", nil)
		r.Header.Set("X-Real-IP", "172.16.0.1")
		ctx := context.WithValue(context.Background(), ctxKeyMCPRequest, r)
		assert.Equal(t, "172.16.0.1", getClientIP(ctx))
	})

	t.Run("RemoteAddr with port", func(t *testing.T) {
		r, _ := http.NewRequest("GET", "/", nil)
		r.RemoteAddr = "192.168.1.100:54321"
		ctx := context.WithValue(context.Background(), ctxKeyMCPRequest, r)
		assert.Equal(t, "192.168.1.100", getClientIP(ctx))
	})
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"valid simple", "users", true},
		{"valid with underscore", "my_table", true},
		{"valid with digits", "table123", true},
		{"empty", "", false},
		{"with space", "my table", false},
		{"with dash", "my-table", false},
		{"with semicolon", "table;DROP", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isValidIdentifier(tt.input))
		})
	}
}
