package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunDone      = "done"
	RunCancelled = "cancelled"
	RunFailed    = "failed"
)

// RunRecord is a persisted sweep run.
type RunRecord struct {
	ID          int64           `json:"id"`
	RunID       string          `json:"run_id"`
	Benchmark   string          `json:"benchmark"`
	FunctionID  string          `json:"function_id"`
	Status      string          `json:"status"`
	Level       int             `json:"level"`
	Repeats     int             `json:"repeats"`
	Config      json.RawMessage `json:"config,omitempty"`
	Summary     json.RawMessage `json:"summary,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// RunUpdate carries the final state of a run.
type RunUpdate struct {
	RunID       string
	Status      string
	Summary     json.RawMessage
	Error       string
	CompletedAt time.Time
}

// InsertRun records the start of a run.
func (s *SQLiteStore) InsertRun(ctx context.Context, rec RunRecord) error {
	query := `
		INSERT INTO bench_runs (
			run_id, benchmark, function_id, status, level, repeats, config, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := retryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, query,
			rec.RunID,
			rec.Benchmark,
			rec.FunctionID,
			rec.Status,
			rec.Level,
			rec.Repeats,
			nullJSON(rec.Config),
			rec.StartedAt.UTC().Format(time.RFC3339Nano),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", rec.RunID, err)
	}
	return nil
}

// UpdateRun records the outcome of a run.
func (s *SQLiteStore) UpdateRun(ctx context.Context, u RunUpdate) error {
	query := `
		UPDATE bench_runs
		SET status = ?, summary = ?, error = ?, completed_at = ?
		WHERE run_id = ?
	`
	err := retryOnBusy(func() error {
		res, err := s.db.ExecContext(ctx, query,
			u.Status,
			nullJSON(u.Summary),
			nullStr(u.Error),
			u.CompletedAt.UTC().Format(time.RFC3339Nano),
			u.RunID,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %s not found", u.RunID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating run %s: %w", u.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. An empty benchmark
// lists runs of every benchmark.
func (s *SQLiteStore) ListRuns(ctx context.Context, benchmark string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, run_id, benchmark, function_id, status, level, repeats,
		       config, summary, error, started_at, completed_at
		FROM bench_runs
		WHERE ? = '' OR benchmark = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, benchmark, benchmark, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var config, summary, errMsg, completedAt sql.NullString
		var startedAt string
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Benchmark, &rec.FunctionID, &rec.Status,
			&rec.Level, &rec.Repeats, &config, &summary, &errMsg, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if config.Valid {
			rec.Config = json.RawMessage(config.String)
		}
		if summary.Valid {
			rec.Summary = json.RawMessage(summary.String)
		}
		rec.Error = errMsg.String
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			rec.StartedAt = t
		}
		if completedAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, completedAt.String); err == nil {
				rec.CompletedAt = &t
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullJSON(b json.RawMessage) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
