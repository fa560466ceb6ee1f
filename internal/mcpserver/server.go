// Package mcpserver publishes the generated contract tools over the Model
// Context Protocol using mcp-go.
package mcpserver

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"OpenMCP-ABI/internal/tools"
	"OpenMCP-ABI/pkg/logger"
)

// Server wraps an MCP server exposing every tool of a registry.
type Server struct {
	mcp    *server.MCPServer
	logger *slog.Logger
}

// New registers all tools of registry on a fresh MCP server.
func New(name, version string, registry *tools.Registry) *Server {
	s := &Server{
		mcp: server.NewMCPServer(name, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		logger: logger.Named("mcpserver"),
	}
	for _, tool := range registry.List() {
		s.mcp.AddTool(mcp.NewToolWithRawSchema(tool.Name, tool.Description, tool.InputSchema), Handler(tool))
	}
	s.logger.Info("tools registered", slog.Int("count", registry.Len()))
	return s
}

// MCP exposes the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves JSON-RPC over in/out until ctx is cancelled or in is
// closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(slogWriter{s.logger}, "", 0))
	s.logger.Info("serving MCP over stdio")
	return stdio.Listen(ctx, in, out)
}

// Handler adapts a tool to mcp-go. Failed invocations are returned as
// results with IsError set, never as protocol errors.
func Handler(tool tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input tools.CallInput
		if err := mapstructure.Decode(req.GetArguments(), &input); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		result := tool.Execute(ctx, input.Args)
		if !result.Success {
			return mcp.NewToolResultError(result.Text()), nil
		}
		return mcp.NewToolResultText(result.Text()), nil
	}
}

type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Write(p []byte) (int, error) {
	w.logger.Error(string(p))
	return len(p), nil
}
