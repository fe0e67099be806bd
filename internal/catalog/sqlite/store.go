// Package sqlite implements the manual catalog on an embedded SQLite
// database (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlitedrv "modernc.org/sqlite"

	"github.com/harshag68/AgentDevelopment/internal/catalog"
	"github.com/harshag68/AgentDevelopment/internal/manual"
)

//go:embed schema.sql
var schema string

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// tsLayout is fixed width in UTC so text ordering equals time ordering.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// foldFunc lower-cases with Go's Unicode tables. SQLite's built-in lower()
// only folds ASCII, which would disagree with catalog.NormalizeQuery.
const foldFunc = "manuel_fold"

func init() {
	sqlitedrv.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlitedrv.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Config configures the SQLite catalog.
type Config struct {
	// Path is the database file. Parent directories are created.
	Path string
}

// DefaultConfig stores the catalog under ~/.manuel.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{Path: filepath.Join(home, ".manuel", "manuals.db")}
}

// Store is the SQLite catalog.
type Store struct {
	db *sql.DB
}

var _ catalog.Catalog = (*Store)(nil)

// New opens (creating if needed) the database and applies the schema.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg = DefaultConfig()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("catalog/sqlite: create data dir: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	q := url.Values{}
	for _, p := range []string{
		"journal_mode(WAL)",
		"busy_timeout(5000)",
		"synchronous(NORMAL)",
		"foreign_keys(ON)",
	} {
		q.Add("_pragma", p)
	}
	db, err := openDB("sqlite", "file:"+cfg.Path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("catalog/sqlite: open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog/sqlite: migration: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// ─── Writes ──────────────────────────────────────────────────────────────────

// InsertManual appends a metadata row. The revision is computed in the same
// statement so concurrent writers serialize on SQLite's write lock.
func (s *Store) InsertManual(ctx context.Context, m manual.Manual) (int, error) {
	kw, err := json.Marshal(nonNil(m.Keywords))
	if err != nil {
		return 0, fmt.Errorf("catalog/sqlite: encode keywords: %w", err)
	}
	var rev int
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO manuals (
			manual_id, revision, title, business_area, requester, created_by,
			created_at, last_updated, context, requirements, permissions,
			outputs, keywords, version
		)
		SELECT ?1, COALESCE(MAX(revision), 0) + 1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10, ?11, ?12, ?13
		FROM manuals WHERE manual_id = ?1
		RETURNING revision`,
		m.ManualID, m.Title, m.BusinessArea, m.Requester, m.CreatedBy,
		formatTime(m.CreatedAt), formatTime(m.LastUpdated),
		m.Context, m.Requirements, m.Permissions, m.Outputs, string(kw), m.Version,
	).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("catalog/sqlite: insert manual: %w", err)
	}
	return rev, nil
}

// InsertSteps appends all step rows in one transaction.
func (s *Store) InsertSteps(ctx context.Context, manualID string, revision int, steps []manual.Step) error {
	if len(steps) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog/sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO manual_steps (
			manual_id, revision, position, step_number, step_title,
			step_description, expected_output, required_tools,
			estimated_time, is_critical
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog/sqlite: prepare steps: %w", err)
	}
	defer stmt.Close()

	for i, st := range steps {
		if _, err := stmt.ExecContext(ctx,
			manualID, revision, i, st.StepNumber, st.StepTitle,
			st.StepDescription, st.ExpectedOutput, st.RequiredTools,
			st.EstimatedTime, boolInt(st.IsCritical),
		); err != nil {
			return fmt.Errorf("catalog/sqlite: insert step %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog/sqlite: commit steps: %w", err)
	}
	return nil
}

// InsertFile appends a rendered file row.
func (s *Store) InsertFile(ctx context.Context, manualID string, revision int, f manual.RenderedFile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO manual_files (manual_id, revision, version, file_path, format, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		manualID, revision, f.Version, f.FilePath, f.Format, formatTime(f.CreatedAt), f.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("catalog/sqlite: insert file: %w", err)
	}
	return nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// LatestManual returns the metadata row of the newest complete revision:
// the highest revision that has a file row.
func (s *Store) LatestManual(ctx context.Context, manualID string) (catalog.Record, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT manual_id, revision, title, business_area, requester, created_by,
		       created_at, last_updated, context, requirements, permissions,
		       outputs, keywords, version
		FROM manuals
		WHERE manual_id = ?1
		  AND revision = (SELECT MAX(f.revision) FROM manual_files f WHERE f.manual_id = ?1)`, manualID)

	var (
		rec                  catalog.Record
		createdAt, updatedAt string
		kw                   string
	)
	m := &rec.Manual
	err := row.Scan(&m.ManualID, &rec.Revision, &m.Title, &m.BusinessArea, &m.Requester,
		&m.CreatedBy, &createdAt, &updatedAt, &m.Context, &m.Requirements,
		&m.Permissions, &m.Outputs, &kw, &m.Version)
	if err == sql.ErrNoRows {
		return catalog.Record{}, false, nil
	}
	if err != nil {
		return catalog.Record{}, false, fmt.Errorf("catalog/sqlite: query manual: %w", err)
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return catalog.Record{}, false, err
	}
	if m.LastUpdated, err = parseTime(updatedAt); err != nil {
		return catalog.Record{}, false, err
	}
	if m.Keywords, err = decodeKeywords(kw); err != nil {
		return catalog.Record{}, false, err
	}
	m.Steps = []manual.Step{}
	m.Files = []manual.RenderedFile{}
	return rec, true, nil
}

// Steps returns the step rows of one revision.
func (s *Store) Steps(ctx context.Context, manualID string, revision int) ([]manual.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step_number, step_title, step_description, expected_output,
		       required_tools, estimated_time, is_critical
		FROM manual_steps
		WHERE manual_id = ? AND revision = ?
		ORDER BY step_number ASC, position ASC`, manualID, revision)
	if err != nil {
		return nil, fmt.Errorf("catalog/sqlite: query steps: %w", err)
	}
	defer rows.Close()

	steps := []manual.Step{}
	for rows.Next() {
		var st manual.Step
		var critical int
		if err := rows.Scan(&st.StepNumber, &st.StepTitle, &st.StepDescription,
			&st.ExpectedOutput, &st.RequiredTools, &st.EstimatedTime, &critical); err != nil {
			return nil, fmt.Errorf("catalog/sqlite: scan step: %w", err)
		}
		st.IsCritical = critical != 0
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

// Files returns all file rows, newest version first.
func (s *Store) Files(ctx context.Context, manualID string) ([]manual.RenderedFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, file_path, format, created_at, created_by
		FROM manual_files
		WHERE manual_id = ?
		ORDER BY version DESC, created_at DESC, row_id DESC`, manualID)
	if err != nil {
		return nil, fmt.Errorf("catalog/sqlite: query files: %w", err)
	}
	defer rows.Close()

	files := []manual.RenderedFile{}
	for rows.Next() {
		var f manual.RenderedFile
		var createdAt string
		if err := rows.Scan(&f.Version, &f.FilePath, &f.Format, &createdAt, &f.CreatedBy); err != nil {
			return nil, fmt.Errorf("catalog/sqlite: scan file: %w", err)
		}
		if f.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Search filters the latest complete revision of every manual.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]manual.Summary, error) {
	q := catalog.NormalizeQuery(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.manual_id, m.title, m.business_area, m.requester,
		       m.created_at, m.last_updated, m.keywords
		FROM manuals m
		WHERE m.revision = (SELECT MAX(f.revision) FROM manual_files f WHERE f.manual_id = m.manual_id)
		  AND (
		    ?1 = ''
		    OR instr(manuel_fold(m.title), ?1) > 0
		    OR instr(manuel_fold(m.context), ?1) > 0
		    OR instr(manuel_fold(m.outputs), ?1) > 0
		    OR EXISTS (
		      SELECT 1 FROM json_each(m.keywords) k
		      WHERE instr(manuel_fold(k.value), ?1) > 0
		    )
		  )
		ORDER BY m.last_updated DESC, m.row_id DESC
		LIMIT ?2`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog/sqlite: search: %w", err)
	}
	defer rows.Close()

	out := []manual.Summary{}
	for rows.Next() {
		var sum manual.Summary
		var createdAt, updatedAt, kw string
		if err := rows.Scan(&sum.ManualID, &sum.Title, &sum.BusinessArea, &sum.Requester,
			&createdAt, &updatedAt, &kw); err != nil {
			return nil, fmt.Errorf("catalog/sqlite: scan summary: %w", err)
		}
		if sum.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if sum.LastUpdated, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		if sum.Keywords, err = decodeKeywords(kw); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func formatTime(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("catalog/sqlite: parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func decodeKeywords(s string) ([]string, error) {
	kw := []string{}
	if s == "" {
		return kw, nil
	}
	if err := json.Unmarshal([]byte(s), &kw); err != nil {
		return nil, fmt.Errorf("catalog/sqlite: decode keywords: %w", err)
	}
	return kw, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
