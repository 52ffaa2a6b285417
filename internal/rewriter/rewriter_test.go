package rewriter

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/haytac/emoji-scrub/internal/cleaner"
	"github.com/haytac/emoji-scrub/internal/textenc"
	"github.com/haytac/emoji-scrub/pkg/interfaces"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// stripX is a deterministic cleaner that treats "X" as the only emoji.
type stripX struct{}

func (stripX) Clean(s string) string { return strings.ReplaceAll(s, "X", "") }

// memFS returns an in-memory filesystem holding files, wrapped for fault injection.
func memFS(t *testing.T, files map[string]string) *FaultFS {
	t.Helper()
	mem := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(mem, path, []byte(content), 0644))
	}
	return NewFaultFS(mem)
}

func newMemRewriter(t *testing.T, dryRun bool, files map[string]string) (*Rewriter, *FaultFS) {
	t.Helper()
	fsys := memFS(t, files)
	rw, err := New(stripX{}, Options{FS: fsys, DryRun: dryRun})
	require.NoError(t, err)
	return rw, fsys
}

func content(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	return string(data)
}

func TestNew_RequiresCleaner(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func TestProcess_Unchanged(t *testing.T) {
	rw, fsys := newMemRewriter(t, false, map[string]string{"/a.txt": "nothing to strip"})

	res := rw.Process(context.Background(), "/a.txt")
	assert.Equal(t, interfaces.OutcomeUnchanged, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Empty(t, fsys.Writes())
}

func TestProcess_Cleaned(t *testing.T) {
	rw, fsys := newMemRewriter(t, false, map[string]string{"/a.txt": "heXlXlo"})

	res := rw.Process(context.Background(), "/a.txt")
	assert.Equal(t, interfaces.OutcomeCleaned, res.Outcome)
	assert.Equal(t, 7, res.BytesBefore)
	assert.Equal(t, 5, res.BytesAfter)
	assert.Equal(t, "hello", content(t, fsys, "/a.txt"))
	assert.Equal(t, []string{"/a.txt"}, fsys.Writes())
}

func TestProcess_DryRunNeverWrites(t *testing.T) {
	rw, fsys := newMemRewriter(t, true, map[string]string{"/a.txt": "XX"})

	res := rw.Process(context.Background(), "/a.txt")
	assert.Equal(t, interfaces.OutcomeWouldClean, res.Outcome)
	assert.Empty(t, fsys.Writes())
	assert.Equal(t, "XX", content(t, fsys, "/a.txt"))
}

func TestProcess_ReadFailureIsSilentSkip(t *testing.T) {
	rw, fsys := newMemRewriter(t, false, map[string]string{"/locked": "X"})
	fsys.ReadErr["/locked"] = &fs.PathError{Op: "open", Path: "/locked", Err: fs.ErrPermission}

	res := rw.Process(context.Background(), "/locked")
	assert.Equal(t, interfaces.OutcomeSkippedRead, res.Outcome)
	assert.ErrorIs(t, res.Err, fs.ErrPermission)

	res = rw.Process(context.Background(), "/gone")
	assert.Equal(t, interfaces.OutcomeSkippedRead, res.Outcome)
	assert.ErrorIs(t, res.Err, fs.ErrNotExist)
	assert.Empty(t, fsys.Writes())
}

func TestProcess_ReadOnlyFilesystem(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/ro.txt", []byte("aXb"), 0644))
	rw, err := New(stripX{}, Options{FS: afero.NewReadOnlyFs(mem)})
	require.NoError(t, err)

	res := rw.Process(context.Background(), "/ro.txt")
	assert.Equal(t, interfaces.OutcomeSkippedPermission, res.Outcome)
	assert.ErrorIs(t, res.Err, fs.ErrPermission)
	assert.Equal(t, "aXb", content(t, mem, "/ro.txt"))
}

func TestProcess_WritePermissionFailure(t *testing.T) {
	rw, fsys := newMemRewriter(t, false, map[string]string{"/ro.txt": "aXb", "/rw.txt": "cXd"})
	fsys.WriteErr["/ro.txt"] = &fs.PathError{Op: "open", Path: "/ro.txt", Err: fs.ErrPermission}

	res := rw.Process(context.Background(), "/ro.txt")
	assert.Equal(t, interfaces.OutcomeSkippedPermission, res.Outcome)
	assert.Equal(t, "aXb", content(t, fsys, "/ro.txt"))

	res = rw.Process(context.Background(), "/rw.txt")
	assert.Equal(t, interfaces.OutcomeCleaned, res.Outcome)
	assert.Equal(t, "cd", content(t, fsys, "/rw.txt"))
}

func TestProcess_OtherWriteFailure(t *testing.T) {
	rw, fsys := newMemRewriter(t, false, map[string]string{"/full.txt": "aXb"})
	fsys.WriteErr["/full.txt"] = errors.New("no space left on device")

	res := rw.Process(context.Background(), "/full.txt")
	assert.Equal(t, interfaces.OutcomeSkippedWrite, res.Outcome)
	assert.EqualError(t, res.Err, "no space left on device")
}

func TestProcess_VanishedFileIsNotRecreated(t *testing.T) {
	rw, fsys := newMemRewriter(t, false, map[string]string{"/a.txt": "aXb"})
	rec, err := rw.Read("/a.txt")
	require.NoError(t, err)
	require.NoError(t, fsys.Remove("/a.txt"))

	rec.Cleaned = "ab"
	err = rw.write(context.Background(), rec)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = fsys.Stat("/a.txt")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestProcess_LenientDecodeDropsInvalidBytes(t *testing.T) {
	rw, fsys := newMemRewriter(t, false, map[string]string{"/bin": "a\xffX\xfeb"})

	res := rw.Process(context.Background(), "/bin")
	assert.Equal(t, interfaces.OutcomeCleaned, res.Outcome)
	assert.Equal(t, "ab", content(t, fsys, "/bin"))
}

func TestProcess_CancelledLimiterWaitIsInterrupted(t *testing.T) {
	fsys := memFS(t, map[string]string{"/a": "X"})
	lim := rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, lim.Allow()) // drain the only token

	rw, err := New(stripX{}, Options{FS: fsys, Limiter: lim})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := rw.Process(ctx, "/a")
	assert.Equal(t, interfaces.OutcomeInterrupted, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, fsys.Writes())
	assert.Equal(t, "X", content(t, fsys, "/a"))
}

func TestProcess_RealFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title \U0001F680\nbody\n"), 0640))

	rw, err := New(cleaner.New(cleaner.NewRuleset("\U0001F680")), Options{})
	require.NoError(t, err)

	res := rw.Process(context.Background(), path)
	require.Equal(t, interfaces.OutcomeCleaned, res.Outcome)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Title \nbody\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0640), info.Mode().Perm())
}

func TestProcess_DirectoryIsReadFailure(t *testing.T) {
	rw, err := New(stripX{}, Options{})
	require.NoError(t, err)

	res := rw.Process(context.Background(), t.TempDir())
	assert.Equal(t, interfaces.OutcomeSkippedRead, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrNotRegular)
}

func TestProcess_ReadOnlyRealFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	path := filepath.Join(t.TempDir(), "ro.txt")
	require.NoError(t, os.WriteFile(path, []byte("aXb"), 0444))

	rw, err := New(stripX{}, Options{})
	require.NoError(t, err)

	res := rw.Process(context.Background(), path)
	assert.Equal(t, interfaces.OutcomeSkippedPermission, res.Outcome)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "aXb", string(data))
}

func TestProcess_Latin1RoundTrip(t *testing.T) {
	codec, err := textenc.Lookup("latin1")
	require.NoError(t, err)
	fsys := memFS(t, map[string]string{"/l1": string([]byte{'c', 'a', 'f', 0xE9, 'X'})})

	rw, err := New(stripX{}, Options{FS: fsys, Codec: codec})
	require.NoError(t, err)

	res := rw.Process(context.Background(), "/l1")
	assert.Equal(t, interfaces.OutcomeCleaned, res.Outcome)
	assert.Equal(t, string([]byte{'c', 'a', 'f', 0xE9}), content(t, fsys, "/l1"))
}
