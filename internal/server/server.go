// Package server wires the MCP components and creates the server instance.
//
// This is the composition root for the agent boundary: it takes a ready
// Manual Store and injects it into the tools, prompts and resources that
// depend on narrower interfaces. No business logic lives here.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/harshag68/AgentDevelopment/internal/prompts"
	"github.com/harshag68/AgentDevelopment/internal/resources"
	"github.com/harshag68/AgentDevelopment/internal/store"
	"github.com/harshag68/AgentDevelopment/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the MCP server name reported to clients.
const Name = "manuel"

// New creates the MCP server with every tool, prompt and resource
// registered against s.
func New(s *store.Store) *server.MCPServer {
	srv := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Tools ---

	saveTool := tools.NewSaveTool(s)
	srv.AddTool(saveTool.Definition(), saveTool.Handle)

	searchTool := tools.NewSearchTool(s)
	srv.AddTool(searchTool.Definition(), searchTool.Handle)

	getTool := tools.NewGetTool(s)
	srv.AddTool(getTool.Definition(), getTool.Handle)

	// --- Prompts ---

	createPrompt := prompts.NewCreatePrompt()
	srv.AddPrompt(createPrompt.Definition(), createPrompt.Handle)

	checklistPrompt := prompts.NewChecklistPrompt(s)
	srv.AddPrompt(checklistPrompt.Definition(), checklistPrompt.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(s)
	srv.AddResource(resourceHandler.RecentResource(), resourceHandler.HandleRecent)
	srv.AddResourceTemplate(resourceHandler.ManualTemplate(), resourceHandler.HandleManual)

	return srv
}

// serverInstructions tells the AI how to use the manual tools.
func serverInstructions() string {
	return `You have access to Manuel, a store of internal process manuals.

## WHEN TO USE IT

- The user asks how a procedure works ("how do we onboard...", "what is the process for..."):
  call manual_search first, then manual_get on the best hit and answer from the stored steps.
- The user describes a procedure to document, or asks to change an existing one:
  draft the manual, confirm it with the user, then call manual_save.
- The user asks for a summary or checklist of a manual: use the manual-checklist prompt
  or manual_get and summarize only what is stored.

## SAVING

Pass the whole manual to manual_save as one object. Missing fields are fine; they
default to empty. Steps may use "title"/"description" or "step_title"/"step_description".
Omit step_number unless the user gave explicit numbering. To update a manual, include
its manual_id; created_at is preserved and the latest save wins.

## FAILURES

If manual_save returns an error, tell the user the manual was not saved and which stage
failed. An empty manual_search result means nothing matched (or search is degraded);
do not invent manuals.`
}
