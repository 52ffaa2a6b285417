package rewriter

import (
	"os"
	"sync"

	"github.com/spf13/afero"
)

// writeFlags open an existing file for rewriting. The file is not created if
// it vanished after it was read, and its permission bits are kept.
const writeFlags = os.O_WRONLY | os.O_TRUNC

func writeFile(fsys afero.Fs, path string, data []byte) error {
	f, err := fsys.OpenFile(path, writeFlags, 0)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// FaultFS wraps an afero.Fs and fails chosen paths on open. It records every
// open for writing so dry-run and no-change paths can be proven write-free.
type FaultFS struct {
	afero.Fs

	ReadErr  map[string]error
	WriteErr map[string]error

	mu     sync.Mutex
	writes []string
}

// NewFaultFS wraps base with no faults configured.
func NewFaultFS(base afero.Fs) *FaultFS {
	return &FaultFS{
		Fs:       base,
		ReadErr:  make(map[string]error),
		WriteErr: make(map[string]error),
	}
}

func (f *FaultFS) Open(name string) (afero.File, error) {
	if err := f.ReadErr[name]; err != nil {
		return nil, err
	}
	return f.Fs.Open(name)
}

func (f *FaultFS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return f.Open(name)
	}
	f.mu.Lock()
	f.writes = append(f.writes, name)
	f.mu.Unlock()
	if err := f.WriteErr[name]; err != nil {
		return nil, err
	}
	return f.Fs.OpenFile(name, flag, perm)
}

// Writes returns the paths opened for writing, in order.
func (f *FaultFS) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}
