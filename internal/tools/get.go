package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// GetTool handles the manual_get MCP tool.
type GetTool struct {
	store ManualStore
}

// NewGetTool creates a GetTool.
func NewGetTool(s ManualStore) *GetTool {
	return &GetTool{store: s}
}

// Definition returns the MCP tool definition for manual_get.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("manual_get",
		mcp.WithDescription(
			"Fetch a complete manual (metadata, ordered steps and rendered file history) by its id.",
		),
		mcp.WithString("manual_id",
			mcp.Required(),
			mcp.Description("Manual id, e.g. MAN-1a2b3c4d5e"),
		),
	)
}

// Handle processes the manual_get tool call. An unknown id is a normal
// not_found result, not an error.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("manual_id", ""))
	if id == "" {
		return mcp.NewToolResultError("'manual_id' is required"), nil
	}

	m, ok, err := t.store.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load manual %s: %v", id, err)), nil
	}
	if !ok {
		return jsonResult(map[string]any{
			"status":    StatusNotFound,
			"manual_id": id,
		})
	}
	return jsonResult(map[string]any{
		"status": StatusOK,
		"manual": m,
	})
}
