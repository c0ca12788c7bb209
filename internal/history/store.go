// Package history keeps a SQLite record of validation runs and the
// violations each run found.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/schemadoc/pkg/compare"
)

// ErrRunNotFound is returned when no run matches an id.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded validation.
type Run struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	Schema        string    `json:"schema"`
	Documentation []string  `json:"documentation"`
	Tables        int       `json:"tables"`
	Violations    int       `json:"violations"`
}

// Record is the input of Store.Record.
type Record struct {
	StartedAt     time.Time
	Schema        string
	Documentation []string
	Report        *compare.Report
}

// Store persists runs in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the history database at path and migrates
// it. Use ":memory:" for an in-memory database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection keeps in-memory databases alive and serializes writes.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	s := New(db, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. The schema must already be migrated.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, logger: logger}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a run and its violations in one transaction.
func (s *Store) Record(ctx context.Context, rec Record) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	docs := rec.Documentation
	if docs == nil {
		docs = []string{}
	}
	run := &Run{
		ID:            uuid.New().String(),
		StartedAt:     rec.StartedAt.UTC(),
		Schema:        rec.Schema,
		Documentation: docs,
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	var violations []compare.Violation
	if rec.Report != nil {
		run.Tables = rec.Report.Tables
		run.Violations = rec.Report.Count()
		violations = rec.Report.Violations
	}

	docsJSON, err := json.Marshal(run.Documentation)
	if err != nil {
		return nil, fmt.Errorf("failed to encode documentation sources: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, schema_source, doc_sources, tables, violations) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Format(timeLayout), run.Schema, string(docsJSON), run.Tables, run.Violations,
	); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	for i, v := range violations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO violations (run_id, seq, kind, table_name, field_name, message) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, i, string(v.Kind), v.Table, v.Field, v.Message,
		); err != nil {
			return nil, fmt.Errorf("failed to record violation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}

	s.logger.Debug("recorded run",
		slog.String("id", run.ID),
		slog.Int("violations", run.Violations))
	return run, nil
}

const runColumns = `id, started_at, schema_source, doc_sources, tables, violations`

// timeLayout is fixed width so that stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Run returns the run whose id starts with prefix. A prefix that matches
// several runs is an error.
func (s *Store) Run(ctx context.Context, prefix string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? || '%' ORDER BY started_at DESC LIMIT 2`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id %q is ambiguous", prefix)
	}
}

// Violations returns the violations recorded for a run, in report order.
func (s *Store) Violations(ctx context.Context, runID string) ([]compare.Violation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, table_name, field_name, message FROM violations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []compare.Violation
	for rows.Next() {
		var v compare.Violation
		var kind string
		if err := rows.Scan(&kind, &v.Table, &v.Field, &v.Message); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		v.Kind = compare.Kind(kind)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var startedAt, docs string
	if err := row.Scan(&run.ID, &startedAt, &run.Schema, &docs, &run.Tables, &run.Violations); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid start time of run %s: %w", run.ID, err)
	}
	run.StartedAt = t

	if err := json.Unmarshal([]byte(docs), &run.Documentation); err != nil {
		return nil, fmt.Errorf("invalid documentation sources of run %s: %w", run.ID, err)
	}
	return run, nil
}
