// Package tools implements the MCP tool handlers agents use to persist and
// look up process manuals.
//
// Each tool is a struct holding its dependencies, with Definition()
// returning the mcp.Tool schema and Handle() serving the call. Results are
// JSON objects with a "status" field so agents can branch on the outcome.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harshag68/AgentDevelopment/internal/manual"
)

// ManualStore is the subset of the Manual Store the tools need.
type ManualStore interface {
	SaveMap(ctx context.Context, in map[string]any) (manual.SaveResult, error)
	Search(ctx context.Context, query string) []manual.Summary
	Get(ctx context.Context, manualID string) (manual.Manual, bool, error)
}

// Status values carried in every tool result.
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
)

// jsonResult encodes v as the text content of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// objectArg reads an argument that may arrive as a JSON object or as a
// string holding one.
func objectArg(req mcp.CallToolRequest, key string) (map[string]any, error) {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("'%s' is required", key)
	}
	switch x := v.(type) {
	case map[string]any:
		return x, nil
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(x), &m); err != nil || m == nil {
			return nil, fmt.Errorf("'%s' must be a JSON object", key)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("'%s' must be an object, got %T", key, v)
	}
}
