package database

import (
	"time"
)

// Run is one invocation of the cleaner over a root directory.
type Run struct {
	ID                string     `db:"id"` // UUID
	Root              string     `db:"root"`
	DryRun            bool       `db:"dry_run"`
	StartedAt         time.Time  `db:"started_at"`
	FinishedAt        *time.Time `db:"finished_at"` // nil while running or if interrupted
	Scanned           int        `db:"scanned"`
	Unchanged         int        `db:"unchanged"`
	Cleaned           int        `db:"cleaned"`
	WouldClean        int        `db:"would_clean"`
	SkippedRead       int        `db:"skipped_read"`
	SkippedPermission int        `db:"skipped_permission"`
	SkippedWrite      int        `db:"skipped_write"`
	BytesRemoved      int64      `db:"bytes_removed"`
}

// RunFile is a file a run changed or failed to change.
type RunFile struct {
	ID          int64     `db:"id"`
	RunID       string    `db:"run_id"`
	Path        string    `db:"path"`
	Outcome     string    `db:"outcome"`
	BytesBefore int       `db:"bytes_before"`
	BytesAfter  int       `db:"bytes_after"`
	Error       *string   `db:"error"`
	RecordedAt  time.Time `db:"recorded_at"`
}
