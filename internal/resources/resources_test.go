package resources_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	blobmem "github.com/harshag68/AgentDevelopment/internal/blob/memory"
	catmem "github.com/harshag68/AgentDevelopment/internal/catalog/memory"
	"github.com/harshag68/AgentDevelopment/internal/manual"
	"github.com/harshag68/AgentDevelopment/internal/render"
	"github.com/harshag68/AgentDevelopment/internal/resources"
	"github.com/harshag68/AgentDevelopment/internal/store"
)

func newHandler(t *testing.T) (*resources.Handler, *store.Store) {
	t.Helper()
	s := store.New(catmem.New(), blobmem.New(), render.MustRenderer())
	return resources.NewHandler(s), s
}

func readReq(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func text(t *testing.T, contents []mcp.ResourceContents) mcp.TextResourceContents {
	t.Helper()
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content type = %T, want TextResourceContents", contents[0])
	}
	return tc
}

func TestDefinitions(t *testing.T) {
	h, _ := newHandler(t)
	if got := h.RecentResource().URI; got != "manual://recent" {
		t.Errorf("RecentResource URI = %q", got)
	}
	if h.ManualTemplate().Name != "Process manual" {
		t.Errorf("ManualTemplate name = %q", h.ManualTemplate().Name)
	}
}

func TestHandleManual_Found(t *testing.T) {
	h, s := newHandler(t)
	res, err := s.Save(context.Background(), manual.RawManual{Title: "Payroll close", Steps: []manual.RawStep{{Title: "Export"}}})
	if err != nil {
		t.Fatal(err)
	}

	uri := "manual://" + res.ManualID
	contents, err := h.HandleManual(context.Background(), readReq(uri))
	if err != nil {
		t.Fatalf("HandleManual: %v", err)
	}
	tc := text(t, contents)
	if tc.URI != uri || tc.MIMEType != "application/json" {
		t.Errorf("content = %+v", tc)
	}
	var m manual.Manual
	if err := json.Unmarshal([]byte(tc.Text), &m); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if m.Title != "Payroll close" || len(m.Steps) != 1 {
		t.Errorf("manual = %+v", m)
	}
}

func TestHandleManual_NotFound(t *testing.T) {
	h, _ := newHandler(t)
	contents, err := h.HandleManual(context.Background(), readReq("manual://MAN-doesnotexist"))
	if err != nil {
		t.Fatalf("HandleManual: %v", err)
	}
	tc := text(t, contents)
	if tc.MIMEType != "text/plain" || !strings.Contains(tc.Text, "not found") {
		t.Errorf("content = %+v", tc)
	}
}

func TestHandleManual_MissingID(t *testing.T) {
	h, _ := newHandler(t)
	contents, err := h.HandleManual(context.Background(), readReq("manual://"))
	if err != nil {
		t.Fatalf("HandleManual: %v", err)
	}
	if !strings.Contains(text(t, contents).Text, "missing manual id") {
		t.Error("blank id should produce an error resource")
	}
}

type brokenReader struct{}

func (brokenReader) Search(context.Context, string) []manual.Summary { return []manual.Summary{} }
func (brokenReader) Get(context.Context, string) (manual.Manual, bool, error) {
	return manual.Manual{}, false, errors.New("catalog offline")
}

func TestHandleManual_QueryError(t *testing.T) {
	h := resources.NewHandler(brokenReader{})
	if _, err := h.HandleManual(context.Background(), readReq("manual://MAN-0123456789")); err == nil {
		t.Error("expected the query error to propagate")
	}
}

func TestHandleRecent(t *testing.T) {
	h, s := newHandler(t)
	for _, title := range []string{"First", "Second"} {
		if _, err := s.Save(context.Background(), manual.RawManual{Title: title}); err != nil {
			t.Fatal(err)
		}
	}
	contents, err := h.HandleRecent(context.Background(), readReq(resources.RecentURI))
	if err != nil {
		t.Fatalf("HandleRecent: %v", err)
	}
	var got []manual.Summary
	if err := json.Unmarshal([]byte(text(t, contents).Text), &got); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d summaries, want 2", len(got))
	}
}
