package ageline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Pipeline steps recorded in the work log.
const (
	StepFacts     = "facts"
	StepImages    = "images"
	StepAnchors   = "anchors"
	StepCompleted = "completed"
)

// WorkLog is the append-only record of pipeline progress per subject, backed
// by SQLite. A subject is considered done only once a "completed" record
// exists, so a crashed run leaves the subject eligible again.
//
// NextSubject is a read followed by later appends, not a reservation: two
// concurrent runs can pick the same subject and the later append wins. This
// is an accepted race for a low-concurrency batch tool; the CLI additionally
// holds a file lock while a run is active.
type WorkLog struct {
	db *sql.DB
}

// Entry is one appended work log record.
type Entry struct {
	RunID    string
	Subject  string
	Step     string
	LoggedAt time.Time
}

// OpenWorkLog opens or creates the work log database at path.
func OpenWorkLog(path string) (*WorkLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure work log dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open work log db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `
        CREATE TABLE IF NOT EXISTS work_log (
            id        INTEGER PRIMARY KEY AUTOINCREMENT,
            run_id    TEXT NOT NULL,
            subject   TEXT NOT NULL,
            step      TEXT NOT NULL,
            logged_at TEXT NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_work_log_subject ON work_log(subject, step);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &WorkLog{db: db}, nil
}

// Close closes the underlying database.
func (w *WorkLog) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

// NewRunID mints an identifier tying a run's log records together.
func NewRunID() string {
	return uuid.NewString()
}

// Append records that a run finished a step for a subject.
func (w *WorkLog) Append(ctx context.Context, runID, subject, step string) error {
	_, err := w.db.ExecContext(ctx,
		`INSERT INTO work_log (run_id, subject, step, logged_at) VALUES (?, ?, ?, ?)`,
		runID, subject, step, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append work log: %w", err)
	}
	return nil
}

// NextSubject returns the first queued subject with no completed record, or
// "" when every subject is done.
func (w *WorkLog) NextSubject(ctx context.Context, queue []string) (string, error) {
	rows, err := w.db.QueryContext(ctx,
		`SELECT DISTINCT subject FROM work_log WHERE step = ?`, StepCompleted)
	if err != nil {
		return "", fmt.Errorf("query completed subjects: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return "", fmt.Errorf("scan completed subject: %w", err)
		}
		done[s] = true
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	for _, name := range queue {
		if !done[name] {
			return name, nil
		}
	}
	return "", nil
}

// History returns all log records for a subject, oldest first.
func (w *WorkLog) History(ctx context.Context, subject string) ([]Entry, error) {
	rows, err := w.db.QueryContext(ctx,
		`SELECT run_id, subject, step, logged_at FROM work_log WHERE subject = ? ORDER BY id`,
		subject)
	if err != nil {
		return nil, fmt.Errorf("query work log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.RunID, &e.Subject, &e.Step, &ts); err != nil {
			return nil, fmt.Errorf("scan work log entry: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			e.LoggedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
