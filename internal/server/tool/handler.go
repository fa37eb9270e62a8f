// Package tool turns route templates into MCP tool handlers.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brizzai/requestkit/internal/logger"
	"github.com/brizzai/requestkit/internal/parser"
	"github.com/brizzai/requestkit/requester"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Handler executes tool calls through a requester Session
type Handler struct {
	session requester.Session
	client  *requester.Configuration
	hooks   []requester.Hook
}

// NewHandler creates a tool handler. hooks observe every exchange.
func NewHandler(session requester.Session, client *requester.Configuration, hooks ...requester.Hook) *Handler {
	return &Handler{
		session: session,
		client:  client,
		hooks:   hooks,
	}
}

// CreateHandler creates the handler function for one route template.
// Request failures are reported as tool errors, never as protocol errors.
func (h *Handler) CreateHandler(route *parser.RouteTemplate) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := route.Execute(ctx, h.session, h.client, request.GetArguments(), requester.WithHooks(h.hooks...))
		if err != nil {
			logger.Debug("Tool call failed",
				zap.String("tool", route.Name),
				zap.Error(err),
			)
			return mcp.NewToolResultError(ErrorText(err)), nil
		}
		return mcp.NewToolResultText(resultText(result)), nil
	}
}

// ErrorText renders a failed call for the caller, including the error body
// when the server sent one
func ErrorText(err error) string {
	failure, ok := requester.AsError(err)
	if !ok {
		return err.Error()
	}
	if failure.Kind != requester.KindHTTPStatus {
		return failure.Error()
	}
	body, ok := failure.Body()
	if !ok {
		return fmt.Sprintf("HTTP Error %d", failure.StatusCode)
	}
	return fmt.Sprintf("HTTP Error %d: %s", failure.StatusCode, resultText(body))
}

func resultText(v any) string {
	switch val := v.(type) {
	case nil:
		return "OK"
	case string:
		return val
	default:
		data, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
