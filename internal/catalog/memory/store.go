// Package memory implements the manual catalog in process memory. It keeps
// the same append-only rows and latest-complete-revision reads as the SQL
// drivers.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/harshag68/AgentDevelopment/internal/catalog"
	"github.com/harshag68/AgentDevelopment/internal/manual"
)

type manualRow struct {
	seq      int
	revision int
	m        manual.Manual
}

type stepRow struct {
	manualID string
	revision int
	position int
	step     manual.Step
}

type fileRow struct {
	seq      int
	manualID string
	revision int
	file     manual.RenderedFile
}

// Store is an in-memory catalog.
type Store struct {
	mu      sync.RWMutex
	seq     int
	closed  bool
	manuals []manualRow
	steps   []stepRow
	files   []fileRow
}

var _ catalog.Catalog = (*Store)(nil)

// New returns an empty catalog.
func New() *Store { return &Store{} }

func (s *Store) InsertManual(_ context.Context, m manual.Manual) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, catalog.ErrClosed
	}
	rev := 1
	for _, r := range s.manuals {
		if r.m.ManualID == m.ManualID && r.revision >= rev {
			rev = r.revision + 1
		}
	}
	s.seq++
	s.manuals = append(s.manuals, manualRow{seq: s.seq, revision: rev, m: clone(m)})
	return rev, nil
}

func (s *Store) InsertSteps(_ context.Context, manualID string, revision int, steps []manual.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return catalog.ErrClosed
	}
	for i, st := range steps {
		s.steps = append(s.steps, stepRow{manualID: manualID, revision: revision, position: i, step: st})
	}
	return nil
}

func (s *Store) InsertFile(_ context.Context, manualID string, revision int, f manual.RenderedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return catalog.ErrClosed
	}
	s.seq++
	s.files = append(s.files, fileRow{seq: s.seq, manualID: manualID, revision: revision, file: f})
	return nil
}

func (s *Store) LatestManual(_ context.Context, manualID string) (catalog.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return catalog.Record{}, false, catalog.ErrClosed
	}
	r, ok := s.latest(manualID)
	if !ok {
		return catalog.Record{}, false, nil
	}
	m := clone(r.m)
	m.Steps = []manual.Step{}
	m.Files = []manual.RenderedFile{}
	return catalog.Record{Manual: m, Revision: r.revision}, true, nil
}

func (s *Store) Steps(_ context.Context, manualID string, revision int) ([]manual.Step, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, catalog.ErrClosed
	}
	var rows []stepRow
	for _, r := range s.steps {
		if r.manualID == manualID && r.revision == revision {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].step.StepNumber != rows[j].step.StepNumber {
			return rows[i].step.StepNumber < rows[j].step.StepNumber
		}
		return rows[i].position < rows[j].position
	})
	out := make([]manual.Step, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.step)
	}
	return out, nil
}

func (s *Store) Files(_ context.Context, manualID string) ([]manual.RenderedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, catalog.ErrClosed
	}
	var rows []fileRow
	for _, r := range s.files {
		if r.manualID == manualID {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].file, rows[j].file
		if a.Version != b.Version {
			return a.Version > b.Version
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]manual.RenderedFile, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.file)
	}
	return out, nil
}

func (s *Store) Search(_ context.Context, query string, limit int) ([]manual.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, catalog.ErrClosed
	}
	q := catalog.NormalizeQuery(query)

	var hits []manualRow
	seen := map[string]bool{}
	for _, r := range s.manuals {
		if seen[r.m.ManualID] {
			continue
		}
		seen[r.m.ManualID] = true
		latest, ok := s.latest(r.m.ManualID)
		if ok && catalog.Matches(latest.m, q) {
			hits = append(hits, latest)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if !hits[i].m.LastUpdated.Equal(hits[j].m.LastUpdated) {
			return hits[i].m.LastUpdated.After(hits[j].m.LastUpdated)
		}
		return hits[i].seq > hits[j].seq
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]manual.Summary, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.m.Summary())
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return catalog.ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// latest returns the newest revision of manualID that has a file row.
func (s *Store) latest(manualID string) (manualRow, bool) {
	rev := 0
	for _, f := range s.files {
		if f.manualID == manualID && f.revision > rev {
			rev = f.revision
		}
	}
	for _, r := range s.manuals {
		if r.m.ManualID == manualID && r.revision == rev {
			return r, true
		}
	}
	return manualRow{}, false
}

func clone(m manual.Manual) manual.Manual {
	m.Keywords = append([]string{}, m.Keywords...)
	m.Steps = nil
	m.Files = nil
	return m
}
