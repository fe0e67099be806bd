// Package catalog defines the tabular side of manual persistence: the
// manuals, manual_steps and manual_files tables.
//
// Rows are append-only. Every save stamps its metadata, step and file rows
// with a per-manual revision number. The file row is written last, so a
// revision is complete once it has one. Reads resolve the latest complete
// revision: earlier snapshots and half-written saves stay in the tables
// without leaking into results.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/harshag68/AgentDevelopment/internal/manual"
)

// Driver names a catalog backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// Record is a metadata row together with the revision it was written at.
type Record struct {
	Manual   manual.Manual
	Revision int
}

// Catalog persists manual metadata, steps and rendered file references.
type Catalog interface {
	// InsertManual appends a metadata row and returns its revision
	// (1 for a new manual_id, previous latest + 1 otherwise).
	InsertManual(ctx context.Context, m manual.Manual) (int, error)
	// InsertSteps appends one row per step, tagged with manualID and revision.
	InsertSteps(ctx context.Context, manualID string, revision int, steps []manual.Step) error
	// InsertFile appends one rendered file row.
	InsertFile(ctx context.Context, manualID string, revision int, f manual.RenderedFile) error
	// LatestManual returns the metadata row of the newest revision of
	// manualID that has a file row. Revisions without one are ignored.
	LatestManual(ctx context.Context, manualID string) (Record, bool, error)
	// Steps returns the steps written at revision, ordered by step number
	// and then insertion position.
	Steps(ctx context.Context, manualID string, revision int) ([]manual.Step, error)
	// Files returns every file row for manualID, newest version first.
	Files(ctx context.Context, manualID string) ([]manual.RenderedFile, error)
	// Search matches query case-insensitively (Unicode folding) against
	// title, context, outputs and keywords of the latest complete revision
	// of each manual, newest last_updated first. An empty query matches
	// everything.
	Search(ctx context.Context, query string, limit int) ([]manual.Summary, error)
	Ping(ctx context.Context) error
	Close() error
}

// ErrClosed is returned by drivers used after Close.
var ErrClosed = errors.New("catalog: closed")

// NormalizeQuery trims and lower-cases a search query.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Matches reports whether a manual matches a normalized query using the
// same rules the SQL drivers apply.
func Matches(m manual.Manual, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(m.Title), q) ||
		strings.Contains(strings.ToLower(m.Context), q) ||
		strings.Contains(strings.ToLower(m.Outputs), q) {
		return true
	}
	for _, k := range m.Keywords {
		if strings.Contains(strings.ToLower(k), q) {
			return true
		}
	}
	return false
}
