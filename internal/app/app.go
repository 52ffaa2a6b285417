package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/haytac/emoji-scrub/internal/cleaner"
	"github.com/haytac/emoji-scrub/internal/config"
	"github.com/haytac/emoji-scrub/internal/database"
	"github.com/haytac/emoji-scrub/internal/logging"
	"github.com/haytac/emoji-scrub/internal/metrics"
	"github.com/haytac/emoji-scrub/internal/report"
	"github.com/haytac/emoji-scrub/internal/rewriter"
	"github.com/haytac/emoji-scrub/internal/textenc"
	"github.com/haytac/emoji-scrub/internal/walker"
	"github.com/haytac/emoji-scrub/pkg/interfaces"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

// Application holds all dependencies for a clean run.
type Application struct {
	Config   *config.AppConfig
	Rewriter *rewriter.Rewriter
	Reporter interfaces.Reporter
	Metrics  *metrics.Recorder
	Journal  interfaces.Journal // nil when journal_path is not set

	db *database.DB
}

// Options overrides collaborators, mainly for tests.
type Options struct {
	Cleaner interfaces.TextCleaner // nil selects the default emoji ruleset
	FS      afero.Fs               // nil selects the OS filesystem
}

// NewApplication validates cfg and wires the pipeline. Progress lines go to out.
func NewApplication(cfg *config.AppConfig, out io.Writer, opts Options) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	codec, err := textenc.Lookup(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	textCleaner := opts.Cleaner
	if textCleaner == nil {
		textCleaner = cleaner.New(nil)
	}

	rwOpts := rewriter.Options{FS: opts.FS, Codec: codec, DryRun: cfg.DryRun}
	if cfg.WriteRate > 0 {
		burst := int(cfg.WriteRate)
		if burst < 1 {
			burst = 1
		}
		rwOpts.Limiter = rate.NewLimiter(rate.Limit(cfg.WriteRate), burst)
	}
	rw, err := rewriter.New(textCleaner, rwOpts)
	if err != nil {
		return nil, err
	}

	application := &Application{
		Config:   cfg,
		Rewriter: rw,
		Reporter: report.NewConsole(out),
		Metrics:  metrics.NewRecorder(),
	}

	if cfg.JournalPath != "" {
		db, err := database.Connect(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		application.db = db
		application.Journal = database.NewRunStore(db)
	}

	return application, nil
}

// Run walks the configured root and processes every file. Only a traversal
// failure is returned as an error; per-file failures end up in the summary.
// Cancelling ctx stops the run between files.
func (app *Application) Run(ctx context.Context) (interfaces.Summary, error) {
	sum := interfaces.NewSummary()
	root, err := filepath.Abs(app.Config.Root)
	if err != nil {
		return sum, fmt.Errorf("resolving root %s: %w", app.Config.Root, err)
	}

	files, err := walker.Walk(root, app.Config.ExcludeDirs)
	if err != nil {
		return sum, err
	}

	started := time.Now()
	runID := app.startJournal(ctx, root)
	logger := logging.ContextualLogger(map[string]interface{}{"root": root, "run_id": runID})
	logger.Info().Bool("dry_run", app.Config.DryRun).Strs("exclude_dirs", app.Config.ExcludeDirs).Msg("Starting clean run")

	own := app.stateFiles()
	interrupted := false
	for entry := range files {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		if _, ok := own[entry.Path()]; ok {
			logger.Debug().Str("path", entry.Path()).Msg("Skipping own state file")
			continue
		}
		res := app.Rewriter.Process(ctx, entry.Path())
		if res.Outcome == interfaces.OutcomeInterrupted {
			interrupted = true
			break
		}
		sum.Add(res)
		app.Reporter.Report(res)
		app.Metrics.Observe(res)
		if runID != "" {
			if err := app.Journal.RecordFile(ctx, runID, res); err != nil {
				logger.Warn().Err(err).Str("path", res.Path).Msg("Failed to journal file result")
			}
		}
	}

	finished := time.Now()
	app.Metrics.Finish(started, finished)
	if runID != "" {
		// The run context may already be cancelled; the summary should still land.
		if err := app.Journal.FinishRun(context.WithoutCancel(ctx), runID, sum); err != nil {
			logger.Warn().Err(err).Msg("Failed to journal run summary")
		}
	}
	if err := app.Metrics.WriteTextfile(app.Config.MetricsFile); err != nil {
		logger.Warn().Err(err).Str("path", app.Config.MetricsFile).Msg("Failed to write metrics file")
	}

	event := logger.Info()
	if interrupted {
		event = logger.Warn()
	}
	event.
		Int("scanned", sum.Scanned).
		Int("cleaned", sum.Counts[interfaces.OutcomeCleaned]).
		Int("would_clean", sum.Counts[interfaces.OutcomeWouldClean]).
		Int("skipped_read", sum.Counts[interfaces.OutcomeSkippedRead]).
		Int("skipped_permission", sum.Counts[interfaces.OutcomeSkippedPermission]).
		Int("skipped_write", sum.Counts[interfaces.OutcomeSkippedWrite]).
		Int64("bytes_removed", sum.BytesRemoved).
		Dur("elapsed", finished.Sub(started)).
		Bool("interrupted", interrupted).
		Msg("Clean run finished")

	return sum, nil
}

// stateFiles returns the absolute paths of files this run itself writes:
// the journal with its SQLite side files, the metrics file and the log file.
func (app *Application) stateFiles() map[string]struct{} {
	paths := []string{app.Config.MetricsFile, app.Config.Log.File}
	if j := app.Config.JournalPath; j != "" {
		paths = append(paths, j, j+"-wal", j+"-shm", j+"-journal")
	}

	own := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		own[abs] = struct{}{}
	}
	return own
}

func (app *Application) startJournal(ctx context.Context, root string) string {
	if app.Journal == nil {
		return ""
	}
	id, err := app.Journal.StartRun(ctx, root, app.Config.DryRun)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to start journal run, continuing without journal")
		return ""
	}
	return id
}

// Close releases the journal database, if one was opened.
func (app *Application) Close() error {
	if app.db == nil {
		return nil
	}
	log.Debug().Msg("Closing journal database...")
	return app.db.Close()
}
