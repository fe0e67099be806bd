// Package prompts implements MCP prompt handlers for drafting and using
// process manuals.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// CreatePrompt handles the manual-create MCP prompt.
// It walks the AI through interviewing the user and saving a manual.
type CreatePrompt struct{}

// NewCreatePrompt creates a CreatePrompt.
func NewCreatePrompt() *CreatePrompt {
	return &CreatePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *CreatePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("manual-create",
		mcp.WithPromptDescription(
			"Draft a new internal process manual with the user and save it. "+
				"Collects context, requirements, permissions, outputs and ordered steps.",
		),
		mcp.WithArgument("title",
			mcp.ArgumentDescription("Working title of the procedure"),
		),
		mcp.WithArgument("business_area",
			mcp.ArgumentDescription("Area that owns the procedure (e.g. IT, HR, Finance)"),
		),
	)
}

// Handle processes the manual-create prompt request.
func (p *CreatePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	title := argOr(req, "title", "")
	area := argOr(req, "business_area", "")

	subject := "a new process"
	if title != "" {
		subject = fmt.Sprintf("the process '%s'", title)
	}
	if area != "" {
		subject += fmt.Sprintf(" owned by %s", area)
	}

	return &mcp.GetPromptResult{
		Description: "Draft and save a process manual",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to document %s as an internal process manual.\n\n"+
						"Please:\n"+
						"1. Run `manual_search` first to check whether a manual for this already exists. "+
						"If one does, fetch it with `manual_get` and update it instead of creating a duplicate\n"+
						"2. Interview me for anything missing: requester, context (why the process exists), "+
						"requirements, permissions, expected outputs and a few search keywords\n"+
						"3. Break the procedure into ordered steps. For each step capture a title, a description, "+
						"the expected output, required tools, estimated time and whether it is critical\n"+
						"4. Show me the draft and wait for my confirmation\n"+
						"5. Save it with `manual_save`, passing the whole manual as one object "+
						"(include `manual_id` when updating)\n"+
						"6. Tell me the manual id and where the rendered document was stored\n\n"+
						"Do not invent steps I did not describe. Mark a step critical only when skipping it "+
						"would break the process or a compliance rule.",
					subject,
				)),
			},
		},
	}, nil
}

func argOr(req mcp.GetPromptRequest, key, fallback string) string {
	if args := req.Params.Arguments; args != nil {
		if v, ok := args[key]; ok && v != "" {
			return v
		}
	}
	return fallback
}
