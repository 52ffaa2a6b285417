package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/haytac/emoji-scrub/pkg/interfaces"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder()

	r.Observe(interfaces.Result{Outcome: interfaces.OutcomeCleaned, BytesBefore: 10, BytesAfter: 6})
	r.Observe(interfaces.Result{Outcome: interfaces.OutcomeUnchanged, BytesBefore: 3, BytesAfter: 3})
	r.Observe(interfaces.Result{Outcome: interfaces.OutcomeSkippedRead})

	assert.Equal(t, 3.0, testutil.ToFloat64(r.FilesScanned))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Files.WithLabelValues("cleaned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Files.WithLabelValues("skipped_read")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.Files.WithLabelValues("skipped_permission")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.BytesRemoved))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(interfaces.Result{Outcome: interfaces.OutcomeCleaned, BytesBefore: 5, BytesAfter: 1})
	start := time.Now()
	r.Finish(start, start.Add(2*time.Second))

	path := filepath.Join(t.TempDir(), "emoji_scrub.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `emojiscrub_files_total{outcome="cleaned"} 1`)
	assert.Contains(t, text, `emojiscrub_files_total{outcome="would_clean"} 0`)
	assert.Contains(t, text, "emojiscrub_run_duration_seconds 2")
}

func TestRecorder_WriteTextfileDisabled(t *testing.T) {
	assert.NoError(t, NewRecorder().WriteTextfile(""))
}
