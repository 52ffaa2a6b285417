package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/haytac/emoji-scrub/pkg/interfaces"
)

// RunStore records runs and the files they touched. It implements interfaces.Journal.
type RunStore struct {
	db  *DB
	now func() time.Time
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// StartRun inserts a new run and returns its ID.
func (s *RunStore) StartRun(ctx context.Context, root string, dryRun bool) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, root, dry_run, started_at) VALUES (?, ?, ?, ?)`,
		id, root, dryRun, s.now())
	if err != nil {
		return "", fmt.Errorf("StartRun exec: %w", err)
	}
	return id, nil
}

// RecordFile stores one file result. Unchanged files are not recorded.
func (s *RunStore) RecordFile(ctx context.Context, runID string, res interfaces.Result) error {
	if res.Outcome == interfaces.OutcomeUnchanged {
		return nil
	}
	var errText *string
	if res.Err != nil {
		msg := res.Err.Error()
		errText = &msg
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_files (run_id, path, outcome, bytes_before, bytes_after, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Path, string(res.Outcome), res.BytesBefore, res.BytesAfter, errText, s.now())
	if err != nil {
		return fmt.Errorf("RecordFile exec: %w", err)
	}
	return nil
}

// FinishRun stores the summary of a run and marks it finished.
func (s *RunStore) FinishRun(ctx context.Context, runID string, sum interfaces.Summary) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, scanned = ?, unchanged = ?, cleaned = ?, would_clean = ?,
			skipped_read = ?, skipped_permission = ?, skipped_write = ?, bytes_removed = ?
		WHERE id = ?`,
		s.now(), sum.Scanned,
		sum.Counts[interfaces.OutcomeUnchanged],
		sum.Counts[interfaces.OutcomeCleaned],
		sum.Counts[interfaces.OutcomeWouldClean],
		sum.Counts[interfaces.OutcomeSkippedRead],
		sum.Counts[interfaces.OutcomeSkippedPermission],
		sum.Counts[interfaces.OutcomeSkippedWrite],
		sum.BytesRemoved,
		runID)
	if err != nil {
		return fmt.Errorf("FinishRun exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("FinishRun rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("FinishRun: run %s not found", runID)
	}
	return nil
}

const runColumns = `id, root, dry_run, started_at, finished_at, scanned, unchanged, cleaned, would_clean,
	skipped_read, skipped_permission, skipped_write, bytes_removed`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	r := &Run{}
	var finished sql.NullTime
	err := row.Scan(&r.ID, &r.Root, &r.DryRun, &r.StartedAt, &finished, &r.Scanned, &r.Unchanged,
		&r.Cleaned, &r.WouldClean, &r.SkippedRead, &r.SkippedPermission, &r.SkippedWrite, &r.BytesRemoved)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return r, nil
}

// GetRun retrieves a run by ID. It returns nil, nil when the run does not exist.
func (s *RunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("GetRun scan: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRuns query: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("ListRuns scan: %w", err)
		}
		runs = append(runs, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRuns rows error: %w", err)
	}
	return runs, nil
}

// ListRunFiles returns the recorded files of a run in the order they were processed.
func (s *RunStore) ListRunFiles(ctx context.Context, runID string) ([]*RunFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, path, outcome, bytes_before, bytes_after, error, recorded_at
		FROM run_files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("ListRunFiles query: %w", err)
	}
	defer rows.Close()

	var files []*RunFile
	for rows.Next() {
		f := &RunFile{}
		if err := rows.Scan(&f.ID, &f.RunID, &f.Path, &f.Outcome, &f.BytesBefore, &f.BytesAfter, &f.Error, &f.RecordedAt); err != nil {
			return nil, fmt.Errorf("ListRunFiles scan: %w", err)
		}
		files = append(files, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRunFiles rows error: %w", err)
	}
	return files, nil
}
