package interfaces

import "context"

// Outcome describes what happened to a single file during a run.
type Outcome string

const (
	OutcomeUnchanged         Outcome = "unchanged"
	OutcomeCleaned           Outcome = "cleaned"
	OutcomeWouldClean        Outcome = "would_clean"
	OutcomeSkippedRead       Outcome = "skipped_read"
	OutcomeSkippedPermission Outcome = "skipped_permission"
	OutcomeSkippedWrite      Outcome = "skipped_write"

	// OutcomeInterrupted marks a file whose write was abandoned because the
	// run was cancelled. The file is untouched and the result is not counted.
	OutcomeInterrupted Outcome = "interrupted"
)

// AllOutcomes lists every outcome in reporting order.
var AllOutcomes = []Outcome{
	OutcomeUnchanged,
	OutcomeCleaned,
	OutcomeWouldClean,
	OutcomeSkippedRead,
	OutcomeSkippedPermission,
	OutcomeSkippedWrite,
}

// FileRecord is the transient per-file state: what was read and what it cleans to.
type FileRecord struct {
	Path     string
	Original string
	Cleaned  string
}

// Changed reports whether the cleaned content differs from what was read.
func (r FileRecord) Changed() bool {
	return r.Cleaned != r.Original
}

// Result holds the outcome of processing one file.
type Result struct {
	Path        string
	Outcome     Outcome
	Err         error // Set for skipped_* outcomes
	BytesBefore int
	BytesAfter  int
}

// TextCleaner removes emoji from text.
type TextCleaner interface {
	Clean(text string) string
}

// Reporter prints user-facing progress lines.
type Reporter interface {
	Report(res Result)
}

// Journal records runs and the files they touched.
type Journal interface {
	StartRun(ctx context.Context, root string, dryRun bool) (string, error)
	RecordFile(ctx context.Context, runID string, res Result) error
	FinishRun(ctx context.Context, runID string, sum Summary) error
}

// Summary aggregates the results of one run.
type Summary struct {
	Scanned      int
	Counts       map[Outcome]int
	BytesRemoved int64
}

// NewSummary returns an empty Summary.
func NewSummary() Summary {
	return Summary{Counts: make(map[Outcome]int, len(AllOutcomes))}
}

// Add folds one result into the summary.
func (s *Summary) Add(res Result) {
	if s.Counts == nil {
		s.Counts = make(map[Outcome]int, len(AllOutcomes))
	}
	s.Scanned++
	s.Counts[res.Outcome]++
	if res.Outcome == OutcomeCleaned || res.Outcome == OutcomeWouldClean {
		s.BytesRemoved += int64(res.BytesBefore - res.BytesAfter)
	}
}
