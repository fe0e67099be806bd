// Package catalogtest is a behavioural test suite every catalog driver runs.
package catalogtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshag68/AgentDevelopment/internal/catalog"
	"github.com/harshag68/AgentDevelopment/internal/manual"
)

// Factory returns a fresh, empty catalog. The suite closes it.
type Factory func(t *testing.T) catalog.Catalog

var base = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func sample(id string, updated time.Time) manual.Manual {
	return manual.Manual{
		ManualID:     id,
		Title:        "Onboarding IT",
		BusinessArea: "IT",
		Requester:    "HR",
		CreatedBy:    manual.DefaultCreatedBy,
		CreatedAt:    base,
		LastUpdated:  updated,
		Context:      "New hires need laptops",
		Outputs:      "Ready workstation",
		Keywords:     []string{"onboarding", "Hardware"},
		Version:      1,
	}
}

// commit writes m the way a completed save does: metadata first, then the
// file row that marks the revision complete.
func commit(t *testing.T, c catalog.Catalog, m manual.Manual) int {
	t.Helper()
	ctx := context.Background()
	rev, err := c.InsertManual(ctx, m)
	require.NoError(t, err)
	require.NoError(t, c.InsertFile(ctx, m.ManualID, rev, manual.RenderedFile{
		Version:   m.Version,
		FilePath:  fmt.Sprintf("mem://manuals/%s/v%d.html", m.ManualID, m.Version),
		Format:    manual.FormatHTML,
		CreatedAt: m.LastUpdated,
		CreatedBy: m.CreatedBy,
	}))
	return rev
}

// Run executes the suite against catalogs produced by newCatalog.
func Run(t *testing.T, newCatalog Factory) {
	open := func(t *testing.T) catalog.Catalog {
		c := newCatalog(t)
		t.Cleanup(func() { _ = c.Close() })
		return c
	}

	t.Run("RevisionsIncrementPerManual", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		r1, err := c.InsertManual(ctx, sample("MAN-aaaaaaaaaa", base))
		require.NoError(t, err)
		r2, err := c.InsertManual(ctx, sample("MAN-aaaaaaaaaa", base.Add(time.Minute)))
		require.NoError(t, err)
		r3, err := c.InsertManual(ctx, sample("MAN-bbbbbbbbbb", base))
		require.NoError(t, err)
		assert.Equal(t, 1, r1)
		assert.Equal(t, 2, r2)
		assert.Equal(t, 1, r3)
	})

	t.Run("LatestManualRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		commit(t, c, sample("MAN-aaaaaaaaaa", base))
		second := sample("MAN-aaaaaaaaaa", base.Add(time.Hour))
		second.Title = "Onboarding IT v2"
		second.Keywords = []string{}
		commit(t, c, second)

		rec, ok, err := c.LatestManual(ctx, "MAN-aaaaaaaaaa")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 2, rec.Revision)
		assert.Equal(t, "Onboarding IT v2", rec.Manual.Title)
		assert.True(t, rec.Manual.CreatedAt.Equal(base), "created_at = %v", rec.Manual.CreatedAt)
		assert.True(t, rec.Manual.LastUpdated.Equal(base.Add(time.Hour)))
		assert.Equal(t, []string{}, rec.Manual.Keywords)
		assert.Equal(t, manual.DefaultCreatedBy, rec.Manual.CreatedBy)
	})

	t.Run("LatestManualSkipsIncompleteRevision", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		commit(t, c, sample("MAN-ffffffffff", base))
		half := sample("MAN-ffffffffff", base.Add(time.Hour))
		half.Title = "Half written"
		rev, err := c.InsertManual(ctx, half)
		require.NoError(t, err)
		require.NoError(t, c.InsertSteps(ctx, half.ManualID, rev, []manual.Step{{StepNumber: 1, StepTitle: "only"}}))

		rec, ok, err := c.LatestManual(ctx, "MAN-ffffffffff")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, rec.Revision)
		assert.Equal(t, "Onboarding IT", rec.Manual.Title)

		got, err := c.Search(ctx, "half", 50)
		require.NoError(t, err)
		assert.Empty(t, got, "revisions without a file row must not match")

		next, err := c.InsertManual(ctx, sample("MAN-ffffffffff", base.Add(2*time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, 3, next, "revision numbers are not reused")

		_, err = c.InsertManual(ctx, sample("MAN-gggggggggg", base))
		require.NoError(t, err)
		_, ok, err = c.LatestManual(ctx, "MAN-gggggggggg")
		require.NoError(t, err)
		assert.False(t, ok, "a manual with no complete revision is not found")
	})

	t.Run("LatestManualMissing", func(t *testing.T) {
		c := open(t)
		_, ok, err := c.LatestManual(context.Background(), "MAN-doesnotexist")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("StepsScopedToRevisionAndOrdered", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		id := "MAN-cccccccccc"
		require.NoError(t, c.InsertSteps(ctx, id, 1, []manual.Step{
			{StepNumber: 1, StepTitle: "old"},
		}))
		require.NoError(t, c.InsertSteps(ctx, id, 2, []manual.Step{
			{StepNumber: 3, StepTitle: "third"},
			{StepNumber: 1, StepTitle: "first", IsCritical: true},
			{StepNumber: 3, StepTitle: "third-b"},
		}))

		steps, err := c.Steps(ctx, id, 2)
		require.NoError(t, err)
		require.Len(t, steps, 3)
		assert.Equal(t, "first", steps[0].StepTitle)
		assert.True(t, steps[0].IsCritical)
		assert.Equal(t, "third", steps[1].StepTitle)
		assert.Equal(t, "third-b", steps[2].StepTitle)

		none, err := c.Steps(ctx, "MAN-unknown", 1)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("FilesNewestVersionFirst", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		id := "MAN-dddddddddd"
		for i, v := range []int{1, 3, 2} {
			require.NoError(t, c.InsertFile(ctx, id, i+1, manual.RenderedFile{
				Version:   v,
				FilePath:  fmt.Sprintf("mem://manuals/%s/v%d.html", id, v),
				Format:    manual.FormatHTML,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
				CreatedBy: "tester",
			}))
		}
		files, err := c.Files(ctx, id)
		require.NoError(t, err)
		require.Len(t, files, 3)
		assert.Equal(t, []int{3, 2, 1}, []int{files[0].Version, files[1].Version, files[2].Version})
		assert.Equal(t, "tester", files[0].CreatedBy)
		assert.Equal(t, "html", files[0].Format)
	})

	t.Run("SearchMatchesFieldsAndKeywords", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		a := sample("MAN-aaaaaaaaaa", base)
		b := sample("MAN-bbbbbbbbbb", base.Add(time.Minute))
		b.Title, b.Context, b.Outputs = "Expense approval", "Finance flow", "Approved report"
		b.Keywords = []string{"payments"}
		e := sample("MAN-cccccccccc", base.Add(2*time.Minute))
		e.Title = "GESTIÓN DE ÑANDÚES"
		e.Context = "Revisión ANUAL del criadero"
		e.Outputs = "Informe FIRMADO por la DIRECCIÓN"
		e.Keywords = []string{"ÉTICA animal"}
		commit(t, c, a)
		commit(t, c, b)
		commit(t, c, e)

		cases := map[string][]string{
			"":           {"MAN-cccccccccc", "MAN-bbbbbbbbbb", "MAN-aaaaaaaaaa"},
			"  ONBOARD ": {"MAN-aaaaaaaaaa"},
			"laptops":    {"MAN-aaaaaaaaaa"},
			"report":     {"MAN-bbbbbbbbbb"},
			"hardware":   {"MAN-aaaaaaaaaa"},
			"PAYMENT":    {"MAN-bbbbbbbbbb"},
			"gestión":    {"MAN-cccccccccc"},
			"ñandú":      {"MAN-cccccccccc"},
			"revisión":   {"MAN-cccccccccc"},
			"dirección":  {"MAN-cccccccccc"},
			"ética":      {"MAN-cccccccccc"},
			"ÉTICA":      {"MAN-cccccccccc"},
			"nothing":    {},
		}
		for q, want := range cases {
			got, err := c.Search(ctx, q, 50)
			require.NoError(t, err, "query %q", q)
			ids := []string{}
			for _, s := range got {
				ids = append(ids, s.ManualID)
			}
			assert.Equal(t, want, ids, "query %q", q)
		}
	})

	t.Run("SearchUsesLatestRevisionOnly", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		old := sample("MAN-eeeeeeeeee", base)
		old.Title = "Legacy VPN setup"
		commit(t, c, old)
		cur := sample("MAN-eeeeeeeeee", base.Add(time.Hour))
		cur.Title = "Zero trust access"
		commit(t, c, cur)

		got, err := c.Search(ctx, "", 50)
		require.NoError(t, err)
		require.Len(t, got, 1, "one row per manual")
		assert.Equal(t, "Zero trust access", got[0].Title)

		got, err = c.Search(ctx, "legacy", 50)
		require.NoError(t, err)
		assert.Empty(t, got, "superseded revisions must not match")
	})

	t.Run("SearchLimitAndOrder", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		for i := 0; i < 7; i++ {
			commit(t, c, sample(fmt.Sprintf("MAN-%010d", i), base.Add(time.Duration(i)*time.Second)))
		}
		got, err := c.Search(ctx, "", 5)
		require.NoError(t, err)
		require.Len(t, got, 5)
		for i := 1; i < len(got); i++ {
			assert.False(t, got[i].LastUpdated.After(got[i-1].LastUpdated), "results must be last_updated desc")
		}
		assert.Equal(t, "MAN-0000000006", got[0].ManualID)
	})

	t.Run("Ping", func(t *testing.T) {
		c := open(t)
		assert.NoError(t, c.Ping(context.Background()))
	})
}
