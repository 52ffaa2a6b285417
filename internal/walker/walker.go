package walker

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Entry is a non-directory entry found during traversal.
type Entry struct {
	Dir  string
	Name string
}

// Path joins Dir and Name.
func (e Entry) Path() string {
	return filepath.Join(e.Dir, e.Name)
}

// Walk checks that root is a readable directory and returns a lazy sequence
// of every non-directory entry below it. Directories whose base name is in
// excludeDirs are pruned before descent; root itself is never pruned.
//
// Errors on individual entries are logged and skipped. Only a bad root is
// reported, and it is reported before anything is yielded.
func Walk(root string, excludeDirs []string) (iter.Seq[Entry], error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot traverse %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot traverse %s: not a directory", root)
	}
	// Stat succeeding does not mean we can list it.
	dir, err := os.Open(root)
	if err != nil {
		return nil, fmt.Errorf("cannot traverse %s: %w", root, err)
	}
	dir.Close()

	// WalkDir does not follow a symlinked root, so walk its target and
	// report paths under root as given.
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("cannot traverse %s: %w", root, err)
	}

	excluded := make(map[string]struct{}, len(excludeDirs))
	for _, name := range excludeDirs {
		if name != "" {
			excluded[name] = struct{}{}
		}
	}

	seq := func(yield func(Entry) bool) {
		_ = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, walkErr error) error {
			isRoot := path == resolved
			if rel, err := filepath.Rel(resolved, path); err == nil {
				path = filepath.Join(root, rel)
			}
			if walkErr != nil {
				log.Debug().Err(walkErr).Str("path", path).Msg("Skipping unreadable entry")
				if d != nil && d.IsDir() && !isRoot {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if isRoot {
					return nil
				}
				if _, ok := excluded[d.Name()]; ok {
					log.Debug().Str("path", path).Msg("Pruning excluded directory")
					return filepath.SkipDir
				}
				return nil
			}

			if !yield(Entry{Dir: filepath.Dir(path), Name: d.Name()}) {
				return filepath.SkipAll
			}
			return nil
		})
	}
	return seq, nil
}
