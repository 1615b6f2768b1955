// Package history persists finished build reports in SQLite so the admin
// API and status page can show recent runs across process restarts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/asrafilll/monoserve/internal/pipeline"
)

// ErrNotFound is returned when a build id has no stored report.
var ErrNotFound = errors.New("build not found")

// Entry is the list-view projection of a stored build.
type Entry struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Revision   string    `json:"revision,omitempty"`
	Outcome    string    `json:"outcome"`
	Workspaces int       `json:"workspaces"`
	Failed     int       `json:"failed"`
}

// Store records build reports in a SQLite database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens or creates the history database. Use ":memory:" for an
// ephemeral store in tests.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		revision TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		workspaces INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		report BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a finished report, replacing any previous row with the same
// run id.
func (s *Store) Record(ctx context.Context, report *pipeline.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	counts := report.CountByStatus()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO builds (id, started_at, finished_at, revision, outcome, workspaces, failed, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.StartedAt.UnixNano(),
		report.FinishedAt.UnixNano(),
		report.Revision,
		string(report.Outcome),
		len(report.Results),
		counts[pipeline.StatusFailed],
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}

	return nil
}

// Recent returns up to limit builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, revision, outcome, workspaces, failed
		 FROM builds ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedNano, finishedNano int64
		if err := rows.Scan(&e.ID, &startedNano, &finishedNano, &e.Revision, &e.Outcome, &e.Workspaces, &e.Failed); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		e.StartedAt = time.Unix(0, startedNano)
		e.FinishedAt = time.Unix(0, finishedNano)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}

	return entries, nil
}

// Get loads the full report for a build id.
func (s *Store) Get(ctx context.Context, id string) (*pipeline.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT report FROM builds WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query build %s: %w", id, err)
	}

	var report pipeline.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return &report, nil
}

// Prune deletes everything but the newest keep builds and reports how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 0 {
		keep = 0
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM builds WHERE id NOT IN (
			SELECT id FROM builds ORDER BY started_at DESC, id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune builds: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned builds: %w", err)
	}
	return int(removed), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
