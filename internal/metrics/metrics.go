package metrics

import (
	"time"

	"github.com/haytac/emoji-scrub/pkg/interfaces"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Recorder holds the counters for one run on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	// FilesScanned counts every file handed to the rewriter.
	FilesScanned prometheus.Counter
	// Files counts files by outcome (cleaned, unchanged, skipped_read, ...).
	Files *prometheus.CounterVec
	// BytesRemoved counts bytes of text removed, or that would be removed in a dry run.
	BytesRemoved prometheus.Counter
	// RunDuration is the wall time of the last run.
	RunDuration prometheus.Gauge
	// LastRunTimestamp is when the last run finished, for staleness alerts.
	LastRunTimestamp prometheus.Gauge
}

// NewRecorder creates a Recorder with all outcome series pre-initialised to zero.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		FilesScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "emojiscrub_files_scanned_total",
			Help: "Total number of files visited.",
		}),
		Files: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emojiscrub_files_total",
				Help: "Total number of files by processing outcome.",
			},
			[]string{"outcome"},
		),
		BytesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "emojiscrub_bytes_removed_total",
			Help: "Total bytes of text removed from rewritten files.",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "emojiscrub_run_duration_seconds",
			Help: "Duration of the last run in seconds.",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "emojiscrub_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	for _, o := range interfaces.AllOutcomes {
		r.Files.WithLabelValues(string(o))
	}
	return r
}

// Observe records one file result.
func (r *Recorder) Observe(res interfaces.Result) {
	r.FilesScanned.Inc()
	r.Files.WithLabelValues(string(res.Outcome)).Inc()
	if res.Outcome == interfaces.OutcomeCleaned || res.Outcome == interfaces.OutcomeWouldClean {
		if removed := res.BytesBefore - res.BytesAfter; removed > 0 {
			r.BytesRemoved.Add(float64(removed))
		}
	}
}

// Finish records the run duration and completion time.
func (r *Recorder) Finish(started, finished time.Time) {
	r.RunDuration.Set(finished.Sub(started).Seconds())
	r.LastRunTimestamp.Set(float64(finished.Unix()))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector. An empty path disables the export.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		log.Debug().Msg("Metrics file not configured, skipping export")
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("Metrics written")
	return nil
}
