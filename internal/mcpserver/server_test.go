package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OpenMCP-ABI/internal/contract"
	"OpenMCP-ABI/internal/contractabi"
	xerrors "OpenMCP-ABI/internal/errors"
	"OpenMCP-ABI/internal/tools"
)

type stubInvoker struct {
	got []contractabi.Value
}

func (s *stubInvoker) CallReadFunction(_ context.Context, _ string, args []contractabi.Value) (any, error) {
	s.got = args
	return "7", nil
}

func (s *stubInvoker) CallWriteFunction(context.Context, string, []contractabi.Value) (*contract.WriteResult, error) {
	return nil, xerrors.New(xerrors.CodeWalletUnavailable, "wallet client not initialized")
}

func newRegistry(t *testing.T, invoker tools.Invoker) *tools.Registry {
	t.Helper()
	iface, err := contractabi.Parse([]byte(`[
	  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	  {"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
	]`))
	require.NoError(t, err)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry, err := tools.NewRegistry(tools.Generate(invoker, "Token", contractabi.ExtractFunctions(iface), tools.WithLogger(quiet))...)
	require.NoError(t, err)
	return registry
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestHandlerSuccess(t *testing.T) {
	invoker := &stubInvoker{}
	registry := newRegistry(t, invoker)
	tool, ok := registry.Lookup("token_balanceOf")
	require.True(t, ok)

	res, err := Handler(tool)(context.Background(), callRequest(tool.Name, map[string]any{
		"args": []any{"0x0000000000000000000000000000000000000011"},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Successfully queried balanceOf")
	require.Len(t, invoker.got, 1)
}

func TestHandlerReportsFailuresAsResults(t *testing.T) {
	registry := newRegistry(t, &stubInvoker{})
	mint, _ := registry.Lookup("token_mint")
	balance, _ := registry.Lookup("token_balanceOf")

	res, err := Handler(mint)(context.Background(), callRequest(mint.Name, map[string]any{"args": []any{"1"}}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "wallet")

	res, err = Handler(balance)(context.Background(), callRequest(balance.Name, nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "expected 1, got 0")

	res, err = Handler(balance)(context.Background(), callRequest(balance.Name, map[string]any{"args": "0x11"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "invalid arguments")
}

func TestServerListsTools(t *testing.T) {
	s := New("test", "0.0.1", newRegistry(t, &stubInvoker{}))

	resp := s.MCP().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	encoded, err := json.Marshal(resp)
	require.NoError(t, err)
	body := string(encoded)
	assert.True(t, strings.Contains(body, `"token_balanceOf"`), body)
	assert.True(t, strings.Contains(body, `"token_mint"`), body)
	assert.Contains(t, body, `"args"`)
}
