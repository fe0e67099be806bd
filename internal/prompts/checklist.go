package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harshag68/AgentDevelopment/internal/manual"
)

// ManualGetter loads a manual by id.
type ManualGetter interface {
	Get(ctx context.Context, manualID string) (manual.Manual, bool, error)
}

// ChecklistPrompt handles the manual-checklist MCP prompt.
// It embeds a saved manual and asks the AI for an operational checklist.
type ChecklistPrompt struct {
	store ManualGetter
}

// NewChecklistPrompt creates a ChecklistPrompt.
func NewChecklistPrompt(store ManualGetter) *ChecklistPrompt {
	return &ChecklistPrompt{store: store}
}

// Definition returns the MCP prompt definition for registration.
func (p *ChecklistPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("manual-checklist",
		mcp.WithPromptDescription(
			"Turn a saved manual into a short operational checklist and executive summary, "+
				"highlighting its critical steps.",
		),
		mcp.WithArgument("manual_id",
			mcp.ArgumentDescription("Id of the manual to summarize"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the manual-checklist prompt request.
func (p *ChecklistPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := strings.TrimSpace(argOr(req, "manual_id", ""))
	if id == "" {
		return nil, fmt.Errorf("manual_id is required")
	}
	m, ok, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading manual %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("manual %s not found", id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here is the manual %s, \"%s\" (version %d).\n\n", m.ManualID, m.Title, m.Version)
	if m.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n", m.Context)
	}
	if m.Outputs != "" {
		fmt.Fprintf(&b, "Outputs: %s\n", m.Outputs)
	}
	b.WriteString("\nSteps:\n")
	for _, s := range m.Steps {
		marker := ""
		if s.IsCritical {
			marker = " [CRITICAL]"
		}
		fmt.Fprintf(&b, "%d. %s%s\n", s.StepNumber, s.StepTitle, marker)
		if s.StepDescription != "" {
			fmt.Fprintf(&b, "   %s\n", s.StepDescription)
		}
	}
	if critical := m.CriticalSteps(); len(critical) > 0 {
		fmt.Fprintf(&b, "\n%d of %d steps are critical.\n", len(critical), len(m.Steps))
	}
	b.WriteString("\nPlease produce:\n" +
		"### Executive summary\n5 to 10 lines for team leads.\n\n" +
		"### Operational checklist\nOne `- [ ]` item per step, in order, with critical steps called out.\n\n" +
		"Use only the steps above. Do not add steps that are not in the manual.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Checklist for %s", m.Title),
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(b.String()),
			},
		},
	}, nil
}
