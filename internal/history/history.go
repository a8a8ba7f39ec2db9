package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dshills/vaahai/internal/review"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Store is a SQLite log of review runs.
type Store struct {
	db *sql.DB
}

// Run is one recorded review.
type Run struct {
	ID              string
	StartedAt       time.Time
	Target          string
	Status          review.Status
	Message         string
	TotalIssues     int
	HighestSeverity review.Severity
	FailedSteps     int
}

// StepRow is one step result within a run.
type StepRow struct {
	RunID    string
	StepID   string
	FilePath string
	Status   review.Status
	Issues   int
	Duration float64
}

// DefaultPath returns ~/.vaahai/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".vaahai", "history.db"), nil
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			target TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL,
			total_issues INTEGER NOT NULL,
			highest_severity TEXT NOT NULL,
			failed_steps INTEGER NOT NULL,
			result_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS step_results (
			run_id TEXT NOT NULL,
			step_id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			status TEXT NOT NULL,
			issues INTEGER NOT NULL,
			duration REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_step_results_run ON step_results(run_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate db: %w", err)
		}
	}
	return nil
}

// Record stores res under res.RunID, which must be set.
func (s *Store) Record(res *review.AggregateResult, at time.Time) error {
	if res.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	failed := 0
	for _, sr := range res.Results {
		if sr.Status == review.StatusError {
			failed++
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, started_at, target, status, message, total_issues, highest_severity, failed_steps, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, res.RunID, at.UTC().Format(time.RFC3339), res.Target, string(res.Status), res.Message,
		res.TotalIssues, string(res.HighestSeverity()), failed, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	for _, sr := range res.Results {
		_, err = tx.Exec(`
			INSERT INTO step_results (run_id, step_id, file_path, status, issues, duration)
			VALUES (?, ?, ?, ?, ?, ?)
		`, res.RunID, sr.StepID, sr.FilePath, string(sr.Status), len(sr.Issues), sr.Duration)
		if err != nil {
			return fmt.Errorf("failed to insert step result: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, started_at, target, status, message, total_issues, highest_severity, failed_steps
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt, status, sev string
		if err := rows.Scan(&r.ID, &startedAt, &r.Target, &status, &r.Message, &r.TotalIssues, &sev, &r.FailedSteps); err != nil {
			return nil, fmt.Errorf("failed to read run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			r.StartedAt = t
		}
		r.Status = review.Status(status)
		r.HighestSeverity = review.Severity(sev)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Result returns the full stored result of a run.
func (s *Store) Result(id string) (*review.AggregateResult, error) {
	var payload string
	err := s.db.QueryRow(`SELECT result_json FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	var res review.AggregateResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("failed to decode run: %w", err)
	}
	return &res, nil
}

// Steps returns the step rows of a run in insertion order.
func (s *Store) Steps(runID string) ([]StepRow, error) {
	rows, err := s.db.Query(`
		SELECT run_id, step_id, file_path, status, issues, duration
		FROM step_results
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var out []StepRow
	for rows.Next() {
		var r StepRow
		var status string
		if err := rows.Scan(&r.RunID, &r.StepID, &r.FilePath, &status, &r.Issues, &r.Duration); err != nil {
			return nil, fmt.Errorf("failed to read step: %w", err)
		}
		r.Status = review.Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes runs started before cutoff and returns how many were removed.
func (s *Store) Prune(cutoff time.Time) (int, error) {
	ts := cutoff.UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(`DELETE FROM step_results WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, ts); err != nil {
		return 0, fmt.Errorf("failed to prune steps: %w", err)
	}
	res, err := s.db.Exec(`DELETE FROM runs WHERE started_at < ?`, ts)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
