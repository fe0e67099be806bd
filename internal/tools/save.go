package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harshag68/AgentDevelopment/internal/store"
)

// SaveTool handles the manual_save MCP tool.
type SaveTool struct {
	store ManualStore
}

// NewSaveTool creates a SaveTool.
func NewSaveTool(s ManualStore) *SaveTool {
	return &SaveTool{store: s}
}

// Definition returns the MCP tool definition for manual_save.
func (t *SaveTool) Definition() mcp.Tool {
	return mcp.NewTool("manual_save",
		mcp.WithDescription(
			"Persist a process manual. Pass the whole manual as one object: title, business_area, requester, "+
				"context, requirements, permissions, outputs, keywords (list or comma separated string), version "+
				"and steps (each with step_title/title, step_description/description, expected_output, "+
				"required_tools, estimated_time, is_critical). Include manual_id to update an existing manual.",
		),
		mcp.WithObject("manual",
			mcp.Required(),
			mcp.Description("The manual to save. A JSON string holding the object is also accepted."),
		),
	)
}

// Handle processes the manual_save tool call.
func (t *SaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := objectArg(req, "manual")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.store.SaveMap(ctx, in)
	if err != nil {
		var perr *store.PersistError
		if errors.As(err, &perr) {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save manual (%s stage): %v", perr.Stage, perr.Err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to save manual: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"status":      StatusOK,
		"manual_id":   res.ManualID,
		"title":       res.Title,
		"file_path":   res.FilePath,
		"steps_count": res.StepsCount,
		"version":     res.Version,
	})
}
