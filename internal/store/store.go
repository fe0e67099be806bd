// Package store implements the Manual Store: save, get and search over the
// catalog tables and the blob store holding rendered documents.
//
// Save is a sequence of independent writes (blob, metadata, steps, file
// row). A failure stops the sequence and is reported with the stage that
// failed; earlier writes stay in place. The file row is written last and
// marks a revision complete. Get and Search read the newest revision that
// has one, so a failed update leaves the previous revision visible and a
// failed first save leaves the manual unknown.
package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/harshag68/AgentDevelopment/internal/blob"
	"github.com/harshag68/AgentDevelopment/internal/catalog"
	"github.com/harshag68/AgentDevelopment/internal/logger"
	"github.com/harshag68/AgentDevelopment/internal/manual"
	"github.com/harshag68/AgentDevelopment/internal/observability"
	"github.com/harshag68/AgentDevelopment/internal/render"
)

// DefaultSearchLimit caps search results.
const DefaultSearchLimit = 50

// Store is the Manual Store. It holds no caches and no locks; it is safe
// for concurrent use as long as its collaborators are.
type Store struct {
	catalog   catalog.Catalog
	blobs     blob.Store
	renderer  render.Renderer
	log       *logger.Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer
	now       func() time.Time
	createdBy string
	limit     int
	prefix    string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(s *Store) { s.log = l } }

// WithMetrics sets the metrics recorder.
func WithMetrics(m *observability.Metrics) Option { return func(s *Store) { s.metrics = m } }

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option { return func(s *Store) { s.tracer = t } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithCreatedBy sets the provenance label for manuals that carry none.
func WithCreatedBy(label string) Option {
	return func(s *Store) {
		if strings.TrimSpace(label) != "" {
			s.createdBy = label
		}
	}
}

// WithSearchLimit sets the maximum number of search results.
func WithSearchLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithKeyPrefix roots document keys under prefix ("tenant-a/" gives
// "tenant-a/manuals/{id}/v{n}.html").
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		p := strings.Trim(prefix, "/")
		if p != "" {
			p += "/"
		}
		s.prefix = p
	}
}

// New wires a Store. All collaborators are required.
func New(cat catalog.Catalog, blobs blob.Store, r render.Renderer, opts ...Option) *Store {
	s := &Store{
		catalog:   cat,
		blobs:     blobs,
		renderer:  r,
		log:       logger.Nop(),
		tracer:    otel.Tracer(observability.TracerName),
		now:       time.Now,
		createdBy: manual.DefaultCreatedBy,
		limit:     DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ─── Save ────────────────────────────────────────────────────────────────────

// Save normalizes raw, renders it, stores the document and appends the
// catalog rows. Re-saving an existing manual_id is an update: created_at is
// preserved from the stored record and the document at (id, version) is
// overwritten.
func (s *Store) Save(ctx context.Context, raw manual.RawManual) (manual.SaveResult, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "manual.save")
	defer span.End()

	if strings.TrimSpace(raw.CreatedBy) == "" {
		raw.CreatedBy = s.createdBy
	}
	m := manual.Normalize(raw)
	if m.ManualID == "" {
		m.ManualID = manual.NewID()
	}
	manual.SortSteps(m.Steps)
	span.SetAttributes(attribute.String("manual.id", m.ManualID), attribute.Int("manual.version", m.Version))
	log := s.log.With("manual_id", m.ManualID, "version", m.Version)
	log.Debug("saving manual", "steps", len(m.Steps))

	fail := func(stage Stage, err error) (manual.SaveResult, error) {
		perr := &PersistError{Stage: stage, ManualID: m.ManualID, Err: err}
		log.Error("save failed", "stage", string(stage), "error", err)
		span.RecordError(perr)
		span.SetStatus(codes.Error, string(stage))
		s.metrics.SaveFailure(string(stage))
		s.metrics.Observe("save", observability.StatusError, s.now().Sub(start))
		return manual.SaveResult{}, perr
	}

	now := s.now().UTC()
	prev, exists, err := s.catalog.LatestManual(ctx, m.ManualID)
	if err != nil {
		return fail(StageMetadata, fmt.Errorf("lookup existing manual: %w", err))
	}
	switch {
	case exists && !prev.Manual.CreatedAt.IsZero():
		m.CreatedAt = prev.Manual.CreatedAt
	case m.CreatedAt.IsZero():
		m.CreatedAt = now
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.LastUpdated = now

	doc, err := s.renderer.Render(m)
	if err != nil {
		return fail(StageRender, err)
	}

	key := s.documentKey(m.ManualID, m.Version, doc.Ext)
	info, err := s.blobs.Put(ctx, key, bytes.NewReader(doc.Body), blob.PutOptions{
		ContentType: doc.ContentType,
		Metadata: map[string]string{
			"manual_id": m.ManualID,
			"version":   strconv.Itoa(m.Version),
		},
	})
	if err != nil {
		return fail(StageBlob, err)
	}
	filePath := info.URI
	if filePath == "" {
		filePath = s.blobs.URI(key)
	}

	rev, err := s.catalog.InsertManual(ctx, m)
	if err != nil {
		return fail(StageMetadata, err)
	}
	if err := s.catalog.InsertSteps(ctx, m.ManualID, rev, m.Steps); err != nil {
		return fail(StageSteps, err)
	}
	file := manual.RenderedFile{
		Version:   m.Version,
		FilePath:  filePath,
		Format:    doc.Format,
		CreatedAt: now,
		CreatedBy: m.CreatedBy,
	}
	if err := s.catalog.InsertFile(ctx, m.ManualID, rev, file); err != nil {
		return fail(StageFiles, err)
	}

	s.metrics.Observe("save", observability.StatusOK, s.now().Sub(start))
	log.Info("manual saved", "revision", rev, "file_path", filePath, "update", exists)
	return manual.SaveResult{
		ManualID:     m.ManualID,
		Title:        m.Title,
		BusinessArea: m.BusinessArea,
		Requester:    m.Requester,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		LastUpdated:  m.LastUpdated,
		StepsCount:   len(m.Steps),
		FilePath:     filePath,
		Version:      m.Version,
	}, nil
}

// SaveMap is Save for loosely typed mappings.
func (s *Store) SaveMap(ctx context.Context, in map[string]any) (manual.SaveResult, error) {
	return s.Save(ctx, manual.FromMap(in))
}

// ─── Get ─────────────────────────────────────────────────────────────────────

// Get reconstructs a manual: latest metadata, the steps written with it in
// step order, and every rendered file newest version first. ok is false for
// unknown ids.
func (s *Store) Get(ctx context.Context, manualID string) (m manual.Manual, ok bool, err error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "manual.get")
	defer span.End()
	manualID = strings.TrimSpace(manualID)
	span.SetAttributes(attribute.String("manual.id", manualID))

	status := observability.StatusOK
	defer func() {
		if err != nil {
			status = observability.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, "get failed")
		}
		s.metrics.Observe("get", status, s.now().Sub(start))
	}()

	if manualID == "" {
		status = observability.StatusNotFound
		return manual.Manual{}, false, nil
	}
	rec, found, err := s.catalog.LatestManual(ctx, manualID)
	if err != nil {
		return manual.Manual{}, false, fmt.Errorf("store: get %s metadata: %w", manualID, err)
	}
	if !found {
		status = observability.StatusNotFound
		s.log.Debug("manual not found", "manual_id", manualID)
		return manual.Manual{}, false, nil
	}
	steps, err := s.catalog.Steps(ctx, manualID, rec.Revision)
	if err != nil {
		return manual.Manual{}, false, fmt.Errorf("store: get %s steps: %w", manualID, err)
	}
	files, err := s.catalog.Files(ctx, manualID)
	if err != nil {
		return manual.Manual{}, false, fmt.Errorf("store: get %s files: %w", manualID, err)
	}
	m = rec.Manual
	if m.Keywords == nil {
		m.Keywords = []string{}
	}
	m.Steps = steps
	m.Files = files
	return m, true, nil
}

// ─── Search ──────────────────────────────────────────────────────────────────

// Search returns metadata summaries matching query, newest update first.
// Backend failures are logged and yield an empty list.
func (s *Store) Search(ctx context.Context, query string) []manual.Summary {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "manual.search")
	defer span.End()
	span.SetAttributes(attribute.Int("search.query_length", len(query)))

	results, err := s.catalog.Search(ctx, query, s.limit)
	if err != nil {
		s.log.Warn("search failed, returning no results", "query_length", len(query), "error", err)
		span.RecordError(err)
		s.metrics.Observe("search", observability.StatusAbsorbed, s.now().Sub(start))
		return []manual.Summary{}
	}
	if results == nil {
		results = []manual.Summary{}
	}
	span.SetAttributes(attribute.Int("search.results", len(results)))
	s.metrics.Observe("search", observability.StatusOK, s.now().Sub(start))
	return results
}

// ─── Documents ───────────────────────────────────────────────────────────────

// Document opens the archived rendering of (manualID, version). The caller
// closes the reader. Missing documents wrap blob.ErrNotFound.
func (s *Store) Document(ctx context.Context, manualID string, version int) (blob.Info, io.ReadCloser, error) {
	key := s.documentKey(manualID, version, "html")
	info, rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return blob.Info{}, nil, fmt.Errorf("store: document %s v%d: %w", manualID, version, err)
	}
	return info, rc, nil
}

// Ping checks the catalog.
func (s *Store) Ping(ctx context.Context) error { return s.catalog.Ping(ctx) }

// BlobDriver names the wired blob backend.
func (s *Store) BlobDriver() string { return string(s.blobs.Driver()) }

func (s *Store) documentKey(manualID string, version int, ext string) string {
	return s.prefix + manual.DocumentKey(manualID, version, ext)
}
