// Package postgres implements the manual catalog on PostgreSQL through the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/harshag68/AgentDevelopment/internal/catalog"
	"github.com/harshag68/AgentDevelopment/internal/manual"
)

//go:embed schema.sql
var schema string

const driverName = "pgx"

var sqlOpen = sql.Open

// Store is the PostgreSQL catalog.
type Store struct {
	db *sql.DB
}

var _ catalog.Catalog = (*Store)(nil)

// New connects to dsn, pings, and applies the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("catalog/postgres: dsn required")
	}
	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog/postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog/postgres: ping: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("catalog/postgres: apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// InsertManual appends a metadata row. A transaction-scoped advisory lock on
// the manual id keeps revision numbers gap-free under concurrent saves.
func (s *Store) InsertManual(ctx context.Context, m manual.Manual) (int, error) {
	kw, err := json.Marshal(nonNil(m.Keywords))
	if err != nil {
		return 0, fmt.Errorf("catalog/postgres: encode keywords: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("catalog/postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, m.ManualID); err != nil {
		return 0, fmt.Errorf("catalog/postgres: lock manual: %w", err)
	}
	var rev int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO manuals (
			manual_id, revision, title, business_area, requester, created_by,
			created_at, last_updated, context, requirements, permissions,
			outputs, keywords, version
		)
		SELECT $1::text, COALESCE(MAX(revision), 0) + 1, $2::text, $3::text, $4::text, $5::text,
		       $6::timestamptz, $7::timestamptz, $8::text, $9::text, $10::text,
		       $11::text, $12::jsonb, $13::int
		FROM manuals WHERE manual_id = $1::text
		RETURNING revision`,
		m.ManualID, m.Title, m.BusinessArea, m.Requester, m.CreatedBy,
		m.CreatedAt.UTC(), m.LastUpdated.UTC(),
		m.Context, m.Requirements, m.Permissions, m.Outputs, string(kw), m.Version,
	).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("catalog/postgres: insert manual: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("catalog/postgres: commit manual: %w", err)
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
		return fmt.Errorf("catalog/postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, st := range steps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO manual_steps (
				manual_id, revision, position, step_number, step_title,
				step_description, expected_output, required_tools,
				estimated_time, is_critical
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			manualID, revision, i, st.StepNumber, st.StepTitle,
			st.StepDescription, st.ExpectedOutput, st.RequiredTools,
			st.EstimatedTime, st.IsCritical,
		); err != nil {
			return fmt.Errorf("catalog/postgres: insert step %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog/postgres: commit steps: %w", err)
	}
	return nil
}

// InsertFile appends a rendered file row.
func (s *Store) InsertFile(ctx context.Context, manualID string, revision int, f manual.RenderedFile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO manual_files (manual_id, revision, version, file_path, format, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		manualID, revision, f.Version, f.FilePath, f.Format, f.CreatedAt.UTC(), f.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("catalog/postgres: insert file: %w", err)
	}
	return nil
}

// LatestManual returns the metadata row of the newest complete revision:
// the highest revision that has a file row.
func (s *Store) LatestManual(ctx context.Context, manualID string) (catalog.Record, bool, error) {
	var (
		rec catalog.Record
		kw  string
	)
	m := &rec.Manual
	err := s.db.QueryRowContext(ctx, `
		SELECT manual_id, revision, title, business_area, requester, created_by,
		       created_at, last_updated, context, requirements, permissions,
		       outputs, keywords::text, version
		FROM manuals
		WHERE manual_id = $1
		  AND revision = (SELECT MAX(f.revision) FROM manual_files f WHERE f.manual_id = $1)`, manualID,
	).Scan(&m.ManualID, &rec.Revision, &m.Title, &m.BusinessArea, &m.Requester,
		&m.CreatedBy, &m.CreatedAt, &m.LastUpdated, &m.Context, &m.Requirements,
		&m.Permissions, &m.Outputs, &kw, &m.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Record{}, false, nil
	}
	if err != nil {
		return catalog.Record{}, false, fmt.Errorf("catalog/postgres: query manual: %w", err)
	}
	if m.Keywords, err = decodeKeywords(kw); err != nil {
		return catalog.Record{}, false, err
	}
	m.CreatedAt, m.LastUpdated = m.CreatedAt.UTC(), m.LastUpdated.UTC()
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
		WHERE manual_id = $1 AND revision = $2
		ORDER BY step_number ASC, position ASC`, manualID, revision)
	if err != nil {
		return nil, fmt.Errorf("catalog/postgres: query steps: %w", err)
	}
	defer rows.Close()

	steps := []manual.Step{}
	for rows.Next() {
		var st manual.Step
		if err := rows.Scan(&st.StepNumber, &st.StepTitle, &st.StepDescription,
			&st.ExpectedOutput, &st.RequiredTools, &st.EstimatedTime, &st.IsCritical); err != nil {
			return nil, fmt.Errorf("catalog/postgres: scan step: %w", err)
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

// Files returns all file rows, newest version first.
func (s *Store) Files(ctx context.Context, manualID string) ([]manual.RenderedFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, file_path, format, created_at, created_by
		FROM manual_files
		WHERE manual_id = $1
		ORDER BY version DESC, created_at DESC, row_id DESC`, manualID)
	if err != nil {
		return nil, fmt.Errorf("catalog/postgres: query files: %w", err)
	}
	defer rows.Close()

	files := []manual.RenderedFile{}
	for rows.Next() {
		var f manual.RenderedFile
		if err := rows.Scan(&f.Version, &f.FilePath, &f.Format, &f.CreatedAt, &f.CreatedBy); err != nil {
			return nil, fmt.Errorf("catalog/postgres: scan file: %w", err)
		}
		f.CreatedAt = f.CreatedAt.UTC()
		files = append(files, f)
	}
	return files, rows.Err()
}

// Search filters the latest complete revision of every manual.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]manual.Summary, error) {
	q := catalog.NormalizeQuery(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.manual_id, m.title, m.business_area, m.requester,
		       m.created_at, m.last_updated, m.keywords::text
		FROM manuals m
		WHERE m.revision = (SELECT MAX(f.revision) FROM manual_files f WHERE f.manual_id = m.manual_id)
		  AND (
		    $1::text = ''
		    OR strpos(lower(m.title), $1::text) > 0
		    OR strpos(lower(m.context), $1::text) > 0
		    OR strpos(lower(m.outputs), $1::text) > 0
		    OR EXISTS (
		      SELECT 1 FROM jsonb_array_elements_text(m.keywords) AS k(value)
		      WHERE strpos(lower(k.value), $1::text) > 0
		    )
		  )
		ORDER BY m.last_updated DESC, m.row_id DESC
		LIMIT $2`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog/postgres: search: %w", err)
	}
	defer rows.Close()

	out := []manual.Summary{}
	for rows.Next() {
		var (
			sum       manual.Summary
			kw        string
			created   time.Time
			updatedAt time.Time
		)
		if err := rows.Scan(&sum.ManualID, &sum.Title, &sum.BusinessArea, &sum.Requester,
			&created, &updatedAt, &kw); err != nil {
			return nil, fmt.Errorf("catalog/postgres: scan summary: %w", err)
		}
		sum.CreatedAt, sum.LastUpdated = created.UTC(), updatedAt.UTC()
		if sum.Keywords, err = decodeKeywords(kw); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func decodeKeywords(s string) ([]string, error) {
	kw := []string{}
	if s == "" {
		return kw, nil
	}
	if err := json.Unmarshal([]byte(s), &kw); err != nil {
		return nil, fmt.Errorf("catalog/postgres: decode keywords: %w", err)
	}
	return kw, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
