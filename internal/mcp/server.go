// Package mcp binds discovered tools to the MCP transport. Each
// registered handler is wrapped so that argument decoding problems
// and handler errors become error results for the client instead of
// protocol failures.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/user/gxtract/internal/tools"
)

const (
	serverName    = "gxtract"
	serverVersion = "v1.0.0"
)

// NewServer builds the MCP server and registers every tool the
// registry discovers. A failure to register one tool is logged and
// skipped; the remaining tools are still registered.
func NewServer(registry *tools.Registry, logger *slog.Logger) *gomcp.Server {
	if logger == nil {
		logger = slog.Default()
	}

	server := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		nil,
	)

	registered := 0
	for _, tool := range registry.DiscoverTools() {
		if err := addTool(server, tool); err != nil {
			logger.Error("failed to register tool", "name", tool.Name, "error", err)
			continue
		}
		registered++
		logger.Debug("registered tool", "name", tool.Name)
	}
	logger.Info("tool registration completed", "registered", registered)

	return server
}

// addTool registers a single tool. The SDK reports invalid tool
// definitions by panicking; that is converted into an error here so
// one bad tool cannot take down registration of the rest.
func addTool(server *gomcp.Server, tool tools.RegisteredTool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("register %s: %v", tool.Name, r)
		}
	}()

	handler := tool.Handler
	server.AddTool(&gomcp.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: tool.InputSchema,
	}, func(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		args, err := decodeArguments(req)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		out, err := handler(ctx, args)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		payload, err := json.Marshal(out)
		if err != nil {
			return errorResult(fmt.Sprintf("encode result: %v", err)), nil
		}
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: string(payload)}},
		}, nil
	})
	return nil
}

func decodeArguments(req *gomcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, err
	}
	return args, nil
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		IsError: true,
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
	}
}

// ServeStdio runs the server over stdio until the client disconnects.
func ServeStdio(ctx context.Context, server *gomcp.Server) error {
	return server.Run(ctx, &gomcp.StdioTransport{})
}

// ServeHTTP serves the streamable HTTP transport on addr. It blocks
// until the listener fails.
func ServeHTTP(addr string, server *gomcp.Server, logger *slog.Logger) error {
	handler := gomcp.NewStreamableHTTPHandler(
		func(*http.Request) *gomcp.Server { return server },
		nil,
	)
	if logger != nil {
		logger.Info("serving MCP over HTTP", "addr", addr)
	}
	return http.ListenAndServe(addr, handler)
}
