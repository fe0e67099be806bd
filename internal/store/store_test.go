package store_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/harshag68/AgentDevelopment/internal/blob"
	blobmem "github.com/harshag68/AgentDevelopment/internal/blob/memory"
	"github.com/harshag68/AgentDevelopment/internal/catalog"
	catmem "github.com/harshag68/AgentDevelopment/internal/catalog/memory"
	"github.com/harshag68/AgentDevelopment/internal/catalog/sqlite"
	"github.com/harshag68/AgentDevelopment/internal/logger"
	"github.com/harshag68/AgentDevelopment/internal/manual"
	"github.com/harshag68/AgentDevelopment/internal/observability"
	"github.com/harshag68/AgentDevelopment/internal/render"
	"github.com/harshag68/AgentDevelopment/internal/store"
)

// ─── Fixtures ───────────────────────────────────────────────────────────────

// clock advances one second per reading.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	store   *store.Store
	catalog catalog.Catalog
	blobs   *blobmem.Store
}

func newFixture(t *testing.T, opts ...store.Option) fixture {
	t.Helper()
	cat := catmem.New()
	blobs := blobmem.New()
	opts = append([]store.Option{store.WithClock(newClock().Now)}, opts...)
	return fixture{
		store:   store.New(cat, blobs, render.MustRenderer(), opts...),
		catalog: cat,
		blobs:   blobs,
	}
}

func onboardingIT() map[string]any {
	return map[string]any{
		"title":         "Onboarding IT",
		"business_area": "IT",
		"requester":     "HR",
		"context":       "New employees need working accounts on day one.",
		"outputs":       "Active accounts and laptop",
		"keywords":      "onboarding, it ,accounts",
		"steps": []any{
			map[string]any{"title": "Create account", "description": "Create the directory account", "is_critical": "yes"},
			map[string]any{"step_title": "Ship laptop", "estimated_time_minutes": 30},
		},
	}
}

// ─── Save + Get ─────────────────────────────────────────────────────────────

func TestSave_OnboardingRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.store.SaveMap(ctx, onboardingIT())
	require.NoError(t, err)
	assert.True(t, manual.ValidID(res.ManualID), "generated id %q", res.ManualID)
	assert.Equal(t, "Onboarding IT", res.Title)
	assert.Equal(t, 2, res.StepsCount)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, manual.DefaultCreatedBy, res.CreatedBy)
	assert.Equal(t, "mem://manuals/"+res.ManualID+"/v1.html", res.FilePath)

	got, ok, err := f.store.Get(ctx, res.ManualID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "IT", got.BusinessArea)
	assert.Equal(t, "HR", got.Requester)
	assert.Equal(t, []string{"onboarding", "it", "accounts"}, got.Keywords)
	assert.True(t, got.CreatedAt.Equal(res.CreatedAt))
	assert.False(t, got.LastUpdated.Before(got.CreatedAt))

	require.Len(t, got.Steps, 2)
	assert.Equal(t, manual.Step{
		StepNumber:      1,
		StepTitle:       "Create account",
		StepDescription: "Create the directory account",
		IsCritical:      true,
	}, got.Steps[0])
	assert.Equal(t, 2, got.Steps[1].StepNumber)
	assert.Equal(t, "Ship laptop", got.Steps[1].StepTitle)
	assert.Equal(t, "30", got.Steps[1].EstimatedTime)

	require.Len(t, got.Files, 1)
	assert.Equal(t, res.FilePath, got.Files[0].FilePath)
	assert.Equal(t, "html", got.Files[0].Format)
	assert.Equal(t, manual.DefaultCreatedBy, got.Files[0].CreatedBy)

	_, rc, err := f.blobs.Get(ctx, "manuals/"+res.ManualID+"/v1.html")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Contains(t, string(body), "Onboarding IT")
}

func TestSave_UpdateSameIDKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.store.SaveMap(ctx, onboardingIT())
	require.NoError(t, err)

	update := onboardingIT()
	update["manual_id"] = first.ManualID
	update["title"] = "Onboarding IT (revised)"
	update["created_at"] = "1999-01-01T00:00:00Z"
	update["steps"] = []any{
		map[string]any{"title": "Request hardware"},
		map[string]any{"title": "Create account"},
		map[string]any{"title": "Welcome call"},
	}
	second, err := f.store.SaveMap(ctx, update)
	require.NoError(t, err)

	assert.Equal(t, first.ManualID, second.ManualID)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt), "created_at must never be overwritten")
	assert.True(t, second.LastUpdated.After(first.LastUpdated))
	assert.Equal(t, first.FilePath, second.FilePath, "same version reuses the document path")

	got, ok, err := f.store.Get(ctx, first.ManualID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Onboarding IT (revised)", got.Title)
	require.Len(t, got.Steps, 3, "only the latest revision's steps are returned")
	assert.Equal(t, "Request hardware", got.Steps[0].StepTitle)
	assert.Len(t, got.Files, 2, "file history is append-only")

	_, rc, err := f.blobs.Get(ctx, "manuals/"+first.ManualID+"/v1.html")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Contains(t, string(body), "revised", "re-saving (id, version) overwrites the document")
}

func TestSave_NewVersionListsFilesNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.store.SaveMap(ctx, onboardingIT())
	require.NoError(t, err)
	v2 := onboardingIT()
	v2["manual_id"] = first.ManualID
	v2["version"] = 2
	_, err = f.store.SaveMap(ctx, v2)
	require.NoError(t, err)

	got, _, err := f.store.Get(ctx, first.ManualID)
	require.NoError(t, err)
	require.Len(t, got.Files, 2)
	assert.Equal(t, 2, got.Files[0].Version)
	assert.Equal(t, 1, got.Files[1].Version)
	assert.True(t, strings.HasSuffix(got.Files[0].FilePath, "/v2.html"))
	assert.Equal(t, 2, got.Version)
}

func TestSave_CallerCreatedAtHonouredOnFirstSave(t *testing.T) {
	f := newFixture(t)
	in := onboardingIT()
	in["created_at"] = "2020-05-05T10:00:00Z"
	res, err := f.store.SaveMap(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, res.CreatedAt.Equal(time.Date(2020, 5, 5, 10, 0, 0, 0, time.UTC)))
}

func TestSave_ExplicitIDAndCreatedBy(t *testing.T) {
	f := newFixture(t, store.WithCreatedBy("ops-bot"))
	res, err := f.store.Save(context.Background(), manual.RawManual{ManualID: "MAN-custom-01", Title: "Custom"})
	require.NoError(t, err)
	assert.Equal(t, "MAN-custom-01", res.ManualID)
	assert.Equal(t, "ops-bot", res.CreatedBy)
	assert.Equal(t, 0, res.StepsCount)
}

func TestSave_IdempotentOnNormalizedInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	norm := manual.Normalize(manual.FromMap(onboardingIT()))
	res, err := f.store.Save(ctx, norm.Raw())
	require.NoError(t, err)

	got, _, err := f.store.Get(ctx, res.ManualID)
	require.NoError(t, err)
	assert.Equal(t, norm.Steps, got.Steps)
	assert.Equal(t, norm.Keywords, got.Keywords)
	assert.Equal(t, norm.Title, got.Title)
}

func TestSave_KeyPrefix(t *testing.T) {
	f := newFixture(t, store.WithKeyPrefix("/tenant-a/"))
	res, err := f.store.SaveMap(context.Background(), onboardingIT())
	require.NoError(t, err)
	assert.Equal(t, "mem://tenant-a/manuals/"+res.ManualID+"/v1.html", res.FilePath)

	_, rc, err := f.store.Document(context.Background(), res.ManualID, 1)
	require.NoError(t, err)
	_ = rc.Close()
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"MAN-doesnotexist", "", "   "} {
		m, ok, err := f.store.Get(context.Background(), id)
		require.NoError(t, err, "id %q", id)
		assert.False(t, ok, "id %q", id)
		assert.Empty(t, m.ManualID)
	}
}

func TestDocument_Missing(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.store.Document(context.Background(), "MAN-none", 1)
	assert.True(t, errors.Is(err, blob.ErrNotFound), "err = %v", err)
}

// ─── Search ─────────────────────────────────────────────────────────────────

func TestSearch_EmptyQueryCappedAndOrdered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 55; i++ {
		_, err := f.store.Save(ctx, manual.RawManual{Title: fmt.Sprintf("Manual %02d", i)})
		require.NoError(t, err)
	}
	got := f.store.Search(ctx, "")
	require.Len(t, got, store.DefaultSearchLimit)
	assert.Equal(t, "Manual 54", got[0].Title)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].LastUpdated.After(got[i-1].LastUpdated))
	}
}

func TestSearch_KeywordOnlyMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	res, err := f.store.SaveMap(ctx, onboardingIT())
	require.NoError(t, err)
	_, err = f.store.Save(ctx, manual.RawManual{Title: "Expenses", Keywords: "finance"})
	require.NoError(t, err)

	got := f.store.Search(ctx, "ACCOUNTS")
	require.Len(t, got, 1)
	assert.Equal(t, res.ManualID, got[0].ManualID)
	assert.Equal(t, []string{"onboarding", "it", "accounts"}, got[0].Keywords)
}

func TestSearch_LimitOption(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.WithSearchLimit(2))
	for i := 0; i < 3; i++ {
		_, err := f.store.Save(ctx, manual.RawManual{Title: "x"})
		require.NoError(t, err)
	}
	assert.Len(t, f.store.Search(ctx, "x"), 2)
}

// ─── Failure policy ─────────────────────────────────────────────────────────

type failingCatalog struct {
	catalog.Catalog
	failOn string
}

var errBackend = errors.New("backend unavailable")

func (c *failingCatalog) LatestManual(ctx context.Context, id string) (catalog.Record, bool, error) {
	if c.failOn == "latest" {
		return catalog.Record{}, false, errBackend
	}
	return c.Catalog.LatestManual(ctx, id)
}

func (c *failingCatalog) InsertManual(ctx context.Context, m manual.Manual) (int, error) {
	if c.failOn == "metadata" {
		return 0, errBackend
	}
	return c.Catalog.InsertManual(ctx, m)
}

func (c *failingCatalog) InsertSteps(ctx context.Context, id string, rev int, steps []manual.Step) error {
	if c.failOn == "steps" {
		return errBackend
	}
	return c.Catalog.InsertSteps(ctx, id, rev, steps)
}

func (c *failingCatalog) InsertFile(ctx context.Context, id string, rev int, f manual.RenderedFile) error {
	if c.failOn == "files" {
		return errBackend
	}
	return c.Catalog.InsertFile(ctx, id, rev, f)
}

func (c *failingCatalog) Search(ctx context.Context, q string, limit int) ([]manual.Summary, error) {
	if c.failOn == "search" {
		return nil, errBackend
	}
	return c.Catalog.Search(ctx, q, limit)
}

type failingBlobs struct{ blob.Store }

func (failingBlobs) Put(context.Context, string, io.Reader, blob.PutOptions) (blob.Info, error) {
	return blob.Info{}, errBackend
}

func TestSave_FailureNamesStage(t *testing.T) {
	tests := []struct {
		failOn string
		stage  store.Stage
	}{
		{"latest", store.StageMetadata},
		{"metadata", store.StageMetadata},
		{"steps", store.StageSteps},
		{"files", store.StageFiles},
	}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			cat := &failingCatalog{Catalog: catmem.New(), failOn: tt.failOn}
			s := store.New(cat, blobmem.New(), render.MustRenderer())
			_, err := s.SaveMap(context.Background(), onboardingIT())
			require.Error(t, err)
			assert.True(t, store.IsStage(err, tt.stage), "err = %v, want stage %s", err, tt.stage)
			assert.True(t, errors.Is(err, errBackend))
			assert.Contains(t, err.Error(), string(tt.stage))
		})
	}

	t.Run("blob", func(t *testing.T) {
		s := store.New(catmem.New(), failingBlobs{blobmem.New()}, render.MustRenderer())
		_, err := s.SaveMap(context.Background(), onboardingIT())
		assert.True(t, store.IsStage(err, store.StageBlob), "err = %v", err)
	})
}

func TestSave_NoRollbackOnLaterFailure(t *testing.T) {
	ctx := context.Background()
	inner := catmem.New()
	blobs := blobmem.New()
	s := store.New(&failingCatalog{Catalog: inner, failOn: "steps"}, blobs, render.MustRenderer())

	in := onboardingIT()
	in["manual_id"] = "MAN-partial001"
	_, err := s.SaveMap(ctx, in)
	require.True(t, store.IsStage(err, store.StageSteps))

	_, rc, err := blobs.Get(ctx, "manuals/MAN-partial001/v1.html")
	require.NoError(t, err, "document written before the failure stays")
	_ = rc.Close()

	rev, err := inner.InsertManual(ctx, manual.Manual{ManualID: "MAN-partial001"})
	require.NoError(t, err)
	assert.Equal(t, 2, rev, "metadata row committed before the failure stays")

	_, ok, err := s.Get(ctx, "MAN-partial001")
	require.NoError(t, err)
	assert.False(t, ok, "a manual whose only save failed is not readable")
	assert.Empty(t, s.Search(ctx, "onboarding"))
}

func TestSave_FailedUpdateKeepsPreviousRevisionReadable(t *testing.T) {
	for _, failOn := range []string{"steps", "files"} {
		t.Run(failOn, func(t *testing.T) {
			ctx := context.Background()
			inner := catmem.New()
			cat := &failingCatalog{Catalog: inner}
			s := store.New(cat, blobmem.New(), render.MustRenderer(), store.WithClock(newClock().Now))

			in := onboardingIT()
			in["manual_id"] = "MAN-update0001"
			_, err := s.SaveMap(ctx, in)
			require.NoError(t, err)

			cat.failOn = failOn
			upd := onboardingIT()
			upd["manual_id"] = "MAN-update0001"
			upd["title"] = "Onboarding IT rewritten"
			upd["steps"] = []any{map[string]any{"title": "Only step"}}
			_, err = s.SaveMap(ctx, upd)
			require.Error(t, err)
			cat.failOn = ""

			got, ok, err := s.Get(ctx, "MAN-update0001")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "Onboarding IT", got.Title)
			require.Len(t, got.Steps, 2, "steps of the last complete save")
			assert.Equal(t, "Create account", got.Steps[0].StepTitle)
			assert.Len(t, got.Files, 1)

			hits := s.Search(ctx, "rewritten")
			assert.Empty(t, hits, "half-written revision must not be searchable")
			hits = s.Search(ctx, "onboarding")
			require.Len(t, hits, 1)
			assert.Equal(t, "Onboarding IT", hits[0].Title)
		})
	}
}

func TestSearch_ErrorsAbsorbed(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	s := store.New(&failingCatalog{Catalog: catmem.New(), failOn: "search"}, blobmem.New(), render.MustRenderer(),
		store.WithMetrics(metrics))

	got := s.Search(context.Background(), "anything")
	require.NotNil(t, got)
	assert.Empty(t, got)

	n, err := testutil.GatherAndCount(reg, "manuel_store_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSearch_TelemetryOmitsQueryText(t *testing.T) {
	const query = "Salary review for Jane Doe"
	for _, failOn := range []string{"", "search"} {
		t.Run("fail="+failOn, func(t *testing.T) {
			rec := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
			t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
			core, logs := observer.New(zapcore.DebugLevel)

			s := store.New(&failingCatalog{Catalog: catmem.New(), failOn: failOn}, blobmem.New(), render.MustRenderer(),
				store.WithTracer(tp.Tracer("test")),
				store.WithLogger(logger.FromZap(zap.New(core))))
			s.Search(context.Background(), query)

			spans := rec.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "manual.search", spans[0].Name())
			var length int64 = -1
			for _, kv := range spans[0].Attributes() {
				assert.NotContains(t, kv.Value.Emit(), "Jane", "attribute %s", kv.Key)
				if kv.Key == "search.query_length" {
					length = kv.Value.AsInt64()
				}
			}
			assert.Equal(t, int64(len(query)), length)

			for _, e := range logs.All() {
				assert.NotContains(t, e.Message, "Jane")
				for k, v := range e.ContextMap() {
					assert.NotContains(t, fmt.Sprint(v), "Jane", "log field %s", k)
				}
			}
			if failOn != "" {
				require.Len(t, logs.All(), 1)
				assert.EqualValues(t, len(query), logs.All()[0].ContextMap()["query_length"])
			}
		})
	}
}

func TestGet_QueryErrorPropagates(t *testing.T) {
	s := store.New(&failingCatalog{Catalog: catmem.New(), failOn: "latest"}, blobmem.New(), render.MustRenderer())
	_, ok, err := s.Get(context.Background(), "MAN-0123456789")
	assert.Error(t, err)
	assert.False(t, ok)
}

// ─── SQLite integration ─────────────────────────────────────────────────────

func TestStore_WithSQLiteCatalog(t *testing.T) {
	ctx := context.Background()
	cat, err := sqlite.New(sqlite.Config{Path: filepath.Join(t.TempDir(), "manuals.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })
	s := store.New(cat, blobmem.New(), render.MustRenderer(), store.WithClock(newClock().Now))

	res, err := s.SaveMap(ctx, onboardingIT())
	require.NoError(t, err)
	upd := onboardingIT()
	upd["manual_id"] = res.ManualID
	upd["steps"] = []any{map[string]any{"step_number": 7, "title": "Only step"}}
	_, err = s.SaveMap(ctx, upd)
	require.NoError(t, err)

	got, ok, err := s.Get(ctx, res.ManualID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, 7, got.Steps[0].StepNumber)
	assert.Len(t, got.Files, 2)
	assert.True(t, got.CreatedAt.Equal(res.CreatedAt))

	hits := s.Search(ctx, "accounts")
	require.Len(t, hits, 1)
	assert.Equal(t, res.ManualID, hits[0].ManualID)
}
