// Package resources implements MCP resource handlers for saved manuals.
//
// Resources provide read-only data the host can pull into context. They use
// manual:// addressing: manual://recent lists the latest manuals and
// manual://{manual_id} returns one manual in full.
package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harshag68/AgentDevelopment/internal/manual"
)

// Scheme prefixes every manual resource URI.
const Scheme = "manual://"

// RecentURI lists the most recently updated manuals.
const RecentURI = Scheme + "recent"

// Reader is the read side of the Manual Store.
type Reader interface {
	Search(ctx context.Context, query string) []manual.Summary
	Get(ctx context.Context, manualID string) (manual.Manual, bool, error)
}

// Handler serves manual resources.
type Handler struct {
	store Reader
}

// NewHandler creates a resource Handler.
func NewHandler(store Reader) *Handler {
	return &Handler{store: store}
}

// RecentResource returns the static resource listing recent manuals.
func (h *Handler) RecentResource() mcp.Resource {
	return mcp.NewResource(
		RecentURI,
		"Recent manuals",
		mcp.WithResourceDescription("Summaries of the most recently updated process manuals"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleRecent returns the recent manual summaries as JSON.
func (h *Handler) HandleRecent(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, h.store.Search(ctx, ""))
}

// ManualTemplate returns the resource template addressing one manual.
func (h *Handler) ManualTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		Scheme+"{manual_id}",
		"Process manual",
		mcp.WithTemplateDescription("A complete manual: metadata, ordered steps and rendered file history"),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// HandleManual returns the manual named in the URI as JSON. Unknown ids
// produce a plain-text not-found resource rather than an error.
func (h *Handler) HandleManual(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.Trim(strings.TrimPrefix(uri, Scheme), "/ ")
	if id == "" {
		return errorResource(uri, "missing manual id"), nil
	}
	m, ok, err := h.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading manual %s: %w", id, err)
	}
	if !ok {
		return errorResource(uri, fmt.Sprintf("manual %s not found", id)), nil
	}
	return jsonContents(uri, m)
}
