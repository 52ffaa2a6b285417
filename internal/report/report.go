// Package report prints one progress line per file that was rewritten or
// could not be.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/haytac/emoji-scrub/pkg/interfaces"
	"github.com/mattn/go-isatty"
)

// Line prefixes. Unchanged files and read failures print nothing.
const (
	PrefixCleaned           = "Cleaned: "
	PrefixWouldClean        = "Would clean: "
	PrefixSkippedPermission = "Skipped (no permission): "
	PrefixSkippedWrite      = "Skipped (write failed): "
)

// Console writes progress lines to a writer, colouring the prefix when the
// writer is a terminal.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
	lines map[interfaces.Outcome]*color.Color
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer) *Console {
	c := &Console{
		out:   out,
		color: isTerminal(out),
		lines: map[interfaces.Outcome]*color.Color{
			interfaces.OutcomeCleaned:           color.New(color.FgGreen),
			interfaces.OutcomeWouldClean:        color.New(color.FgCyan),
			interfaces.OutcomeSkippedPermission: color.New(color.FgYellow),
			interfaces.OutcomeSkippedWrite:      color.New(color.FgRed),
		},
	}
	for _, col := range c.lines {
		if c.color {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Prefix returns the line prefix for an outcome, or "" when the outcome is not reported.
func Prefix(o interfaces.Outcome) string {
	switch o {
	case interfaces.OutcomeCleaned:
		return PrefixCleaned
	case interfaces.OutcomeWouldClean:
		return PrefixWouldClean
	case interfaces.OutcomeSkippedPermission:
		return PrefixSkippedPermission
	case interfaces.OutcomeSkippedWrite:
		return PrefixSkippedWrite
	default:
		return ""
	}
}

// Report implements interfaces.Reporter.
func (c *Console) Report(res interfaces.Result) {
	prefix := Prefix(res.Outcome)
	if prefix == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines[res.Outcome].Fprint(c.out, prefix)
	fmt.Fprintln(c.out, sanitizePath(res.Path))
}

// sanitizePath replaces control characters (< 0x20, 0x7F) with '?'.
func sanitizePath(s string) string {
	if !strings.ContainsFunc(s, isControl) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isControl(r) {
			return '?'
		}
		return r
	}, s)
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7F
}
