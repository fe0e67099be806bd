package render_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/harshag68/AgentDevelopment/internal/manual"
	"github.com/harshag68/AgentDevelopment/internal/render"
)

func sampleManual() manual.Manual {
	return manual.Normalize(manual.RawManual{
		ManualID:     "MAN-0a1b2c3d4e",
		Title:        "Onboarding IT",
		BusinessArea: "IT",
		Requester:    "HR",
		Context:      "New hires need accounts.",
		Requirements: "Signed contract",
		Permissions:  "IT admin",
		Outputs:      "Active accounts",
		Keywords:     "onboarding, it",
		Steps: []manual.RawStep{
			{Title: "Create account", Description: "Use the admin console", IsCritical: true},
			{StepTitle: "Send credentials", ExpectedOutput: "Email sent", RequiredTools: "Mail", EstimatedTime: "5 min"},
		},
	})
}

// --- NewRenderer ---

func TestNewRenderer_Succeeds(t *testing.T) {
	r, err := render.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() failed: %v", err)
	}
	if r == nil {
		t.Fatal("NewRenderer() returned nil")
	}
}

// --- Render ---

func TestRender_ContainsSections(t *testing.T) {
	doc, err := render.MustRenderer().Render(sampleManual())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.Format != "html" || doc.Ext != "html" {
		t.Errorf("format/ext = %q/%q, want html/html", doc.Format, doc.Ext)
	}
	if !strings.HasPrefix(doc.ContentType, "text/html") {
		t.Errorf("ContentType = %q", doc.ContentType)
	}

	body := string(doc.Body)
	checks := []string{
		"<title>Onboarding IT</title>",
		"<h2>Context</h2>",
		"New hires need accounts.",
		"<h2>Requirements</h2>",
		"<h2>Permissions</h2>",
		"<h2>Outputs</h2>",
		"1. Create account",
		"2. Send credentials",
		"Email sent",
		"5 min",
		"critical",
	}
	for _, c := range checks {
		if !strings.Contains(body, c) {
			t.Errorf("rendered page missing %q", c)
		}
	}
	if strings.Index(body, "1. Create account") > strings.Index(body, "2. Send credentials") {
		t.Error("steps rendered out of order")
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := render.MustRenderer()
	a, err := r.Render(sampleManual())
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Render(sampleManual())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Body, b.Body) {
		t.Error("rendering the same manual twice produced different bytes")
	}
}

func TestRender_EscapesContent(t *testing.T) {
	m := sampleManual()
	m.Context = `<script>alert("x")</script>`
	doc, err := render.MustRenderer().Render(m)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(doc.Body), "<script>") {
		t.Error("context was not escaped")
	}
}

func TestRender_NoExternalReferences(t *testing.T) {
	doc, err := render.MustRenderer().Render(sampleManual())
	if err != nil {
		t.Fatal(err)
	}
	body := string(doc.Body)
	for _, ref := range []string{"http://", "https://", "<link", "src="} {
		if strings.Contains(body, ref) {
			t.Errorf("page contains external reference %q", ref)
		}
	}
}

func TestRender_EmptyManual(t *testing.T) {
	doc, err := render.MustRenderer().Render(manual.Normalize(manual.RawManual{}))
	if err != nil {
		t.Fatalf("Render(empty) error: %v", err)
	}
	if !strings.Contains(string(doc.Body), "No steps recorded.") {
		t.Error("empty manual should render the no-steps placeholder")
	}
}
