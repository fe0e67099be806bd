// Package render turns a manual into a self-contained archival document.
//
// Output is deterministic: the same manual always renders to the same bytes.
// No timestamps are added beyond what the manual carries, and the page has
// no external references (inline CSS only).
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/harshag68/AgentDevelopment/internal/manual"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Document is a rendered artifact ready for the blob store.
type Document struct {
	Body        []byte
	ContentType string
	Format      string
	Ext         string
}

// Renderer renders manuals into documents.
type Renderer interface {
	Render(m manual.Manual) (Document, error)
}

// HTMLRenderer renders a single HTML page per manual.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded page template.
func NewRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/manual.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("render: parse template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// MustRenderer is NewRenderer for package-level wiring; it panics on a
// broken embedded template.
func MustRenderer() *HTMLRenderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the template. Steps render in the order given; callers
// pass normalized manuals whose steps are already sorted.
func (r *HTMLRenderer) Render(m manual.Manual) (Document, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "manual.html.tmpl", m); err != nil {
		return Document{}, fmt.Errorf("render: execute template: %w", err)
	}
	return Document{
		Body:        buf.Bytes(),
		ContentType: "text/html; charset=utf-8",
		Format:      manual.FormatHTML,
		Ext:         "html",
	}, nil
}
