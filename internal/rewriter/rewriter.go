// Package rewriter reads one file, strips emoji from it and writes it back
// only when the content changed.
package rewriter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/haytac/emoji-scrub/internal/textenc"
	"github.com/haytac/emoji-scrub/pkg/interfaces"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ErrNotRegular is the read failure for paths that are not regular files.
var ErrNotRegular = errors.New("not a regular file")

// Limiter throttles writes. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Options configures a Rewriter.
type Options struct {
	FS      afero.Fs       // nil selects the OS filesystem
	Codec   *textenc.Codec // nil selects UTF-8
	DryRun  bool
	Limiter Limiter // nil means unthrottled
}

// Rewriter applies a TextCleaner to files in place.
type Rewriter struct {
	cleaner interfaces.TextCleaner
	fs      afero.Fs
	codec   *textenc.Codec
	dryRun  bool
	limiter Limiter
}

// New creates a Rewriter.
func New(cleaner interfaces.TextCleaner, opts Options) (*Rewriter, error) {
	if cleaner == nil {
		return nil, errors.New("rewriter: nil cleaner")
	}
	rw := &Rewriter{
		cleaner: cleaner,
		fs:      opts.FS,
		codec:   opts.Codec,
		dryRun:  opts.DryRun,
		limiter: opts.Limiter,
	}
	if rw.fs == nil {
		rw.fs = afero.NewOsFs()
	}
	if rw.codec == nil {
		codec, err := textenc.Lookup(textenc.DefaultEncoding)
		if err != nil {
			return nil, err
		}
		rw.codec = codec
	}
	return rw, nil
}

// Read loads and decodes a file. Undecodable bytes are dropped, so the only
// failures are those of the filesystem itself.
func (rw *Rewriter) Read(path string) (interfaces.FileRecord, error) {
	info, err := rw.fs.Stat(path)
	if err != nil {
		return interfaces.FileRecord{}, err
	}
	if !info.Mode().IsRegular() {
		return interfaces.FileRecord{}, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	data, err := afero.ReadFile(rw.fs, path)
	if err != nil {
		return interfaces.FileRecord{}, err
	}
	return interfaces.FileRecord{Path: path, Original: rw.codec.Decode(data)}, nil
}

// Process runs read, clean and conditional write for one path. It never
// returns an error: every failure is folded into the Result outcome.
func (rw *Rewriter) Process(ctx context.Context, path string) interfaces.Result {
	rec, err := rw.Read(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Skipping unreadable file")
		return interfaces.Result{Path: path, Outcome: interfaces.OutcomeSkippedRead, Err: err}
	}

	rec.Cleaned = rw.cleaner.Clean(rec.Original)
	res := interfaces.Result{
		Path:        path,
		BytesBefore: len(rec.Original),
		BytesAfter:  len(rec.Cleaned),
	}
	if !rec.Changed() {
		res.Outcome = interfaces.OutcomeUnchanged
		return res
	}
	if rw.dryRun {
		res.Outcome = interfaces.OutcomeWouldClean
		return res
	}

	if err := rw.write(ctx, rec); err != nil {
		res.Err = err
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			res.Outcome = interfaces.OutcomeInterrupted
		case errors.Is(err, fs.ErrPermission):
			res.Outcome = interfaces.OutcomeSkippedPermission
		default:
			res.Outcome = interfaces.OutcomeSkippedWrite
			log.Warn().Err(err).Str("path", path).Msg("Failed to rewrite file")
		}
		return res
	}

	res.Outcome = interfaces.OutcomeCleaned
	return res
}

func (rw *Rewriter) write(ctx context.Context, rec interfaces.FileRecord) error {
	if rw.limiter != nil {
		if err := rw.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for write slot: %w", err)
		}
	}
	data, err := rw.codec.Encode(rec.Cleaned)
	if err != nil {
		return err
	}
	return writeFile(rw.fs, rec.Path, data)
}
