package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// SearchTool handles the manual_search MCP tool.
type SearchTool struct {
	store ManualStore
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(s ManualStore) *SearchTool {
	return &SearchTool{store: s}
}

// Definition returns the MCP tool definition for manual_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("manual_search",
		mcp.WithDescription(
			"Search saved manuals by title, context, outputs or keyword (case-insensitive substring). "+
				"An empty query lists the most recently updated manuals.",
		),
		mcp.WithString("text_query",
			mcp.Description("Text to look for. Leave empty to list recent manuals."),
		),
	)
}

// Handle processes the manual_search tool call. Search never fails; a
// backend problem shows up as an empty result list.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results := t.store.Search(ctx, req.GetString("text_query", ""))
	return jsonResult(map[string]any{
		"status":  StatusOK,
		"results": results,
	})
}
