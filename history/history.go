// Package history keeps a record of past runs and the batches they collected
// in a SQLite database.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/hnsort/article"
)

// ErrRunNotFound is returned for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// Store manages run history using SQLite.
type Store struct {
	db *sql.DB
}

// Run is the summary of one pipeline run.
type Run struct {
	RunID      uuid.UUID `json:"run_id"`
	Source     string    `json:"source"`
	Target     int       `json:"target"`
	Collected  int       `json:"collected"`
	Outcome    string    `json:"outcome"`
	Error      *string   `json:"error,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewStore opens (or creates) the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	// Create the parent directory if it doesn't exist (0700: owner-only access)
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs and run_items tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		target INTEGER NOT NULL,
		collected INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		error TEXT,
		output_path TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS run_items (
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		item_id TEXT NOT NULL,
		title TEXT NOT NULL,
		age TEXT NOT NULL,
		url TEXT,
		site TEXT,
		PRIMARY KEY (run_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores run and its items in a single transaction.
func (s *Store) RecordRun(run Run, items []article.Item) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, source, target, collected, outcome, error,
			output_path, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID.String(),
		run.Source,
		run.Target,
		run.Collected,
		run.Outcome,
		run.Error,
		run.OutputPath,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_items (run_id, position, item_id, title, age, url, site)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.Exec(
			run.RunID.String(), item.Index, item.ID, item.Title, item.Age,
			item.URL, item.Site,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item %d: %w", item.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs first. A limit of 0 returns all runs.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT run_id, source, target, collected, outcome, error,
		       output_path, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	return runs, nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(runID uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, source, target, collected, outcome, error,
		       output_path, started_at, finished_at
		FROM runs
		WHERE run_id = ?
	`, runID.String())

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// RunItems returns the items recorded for a run, in listing order.
func (s *Store) RunItems(runID uuid.UUID) ([]article.Item, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT position, item_id, title, age, url, site
		FROM run_items
		WHERE run_id = ?
		ORDER BY position
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query run items: %w", err)
	}
	defer rows.Close()

	var items []article.Item
	for rows.Next() {
		var item article.Item
		var itemURL, site sql.NullString
		if err := rows.Scan(&item.Index, &item.ID, &item.Title, &item.Age, &itemURL, &site); err != nil {
			return nil, fmt.Errorf("failed to scan run item: %w", err)
		}
		item.URL = itemURL.String
		item.Site = site.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run items: %w", err)
	}

	return items, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var runIDStr, startedAtStr, finishedAtStr string
	var errMsg, outputPath sql.NullString
	run := &Run{}

	err := row.Scan(
		&runIDStr, &run.Source, &run.Target, &run.Collected, &run.Outcome,
		&errMsg, &outputPath, &startedAtStr, &finishedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.RunID, err = uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run ID: %w", err)
	}
	if errMsg.Valid {
		run.Error = &errMsg.String
	}
	run.OutputPath = outputPath.String
	run.StartedAt = parseTime(startedAtStr)
	run.FinishedAt = parseTime(finishedAtStr)

	return run, nil
}

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
