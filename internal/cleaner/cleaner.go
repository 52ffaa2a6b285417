// Package cleaner strips emoji from text.
//
// Text is split into extended grapheme clusters (UAX #29) and every cluster
// the Ruleset recognises is dropped, so multi-code-point emoji such as flags,
// skin-tone variants and ZWJ sequences disappear as a whole.
package cleaner

import (
	"strings"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/graphemes"
)

// Cleaner removes emoji clusters from text. It holds no mutable state and is
// safe for concurrent use.
type Cleaner struct {
	rules Ruleset
}

// New creates a Cleaner using rules. A nil ruleset selects DefaultRuleset.
func New(rules Ruleset) *Cleaner {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &Cleaner{rules: rules}
}

// Clean returns text with every emoji cluster removed. Text without emoji is
// returned as is.
func (c *Cleaner) Clean(text string) string {
	if text == "" {
		return text
	}

	var b strings.Builder
	changed := false
	offset := 0

	tokens := graphemes.FromString(text)
	for tokens.Next() {
		cluster := tokens.Value()
		start := offset
		offset += len(cluster)

		kept := ""
		if !c.rules.Match(cluster) {
			kept = c.stripAttached(cluster)
			if kept == cluster {
				if changed {
					b.WriteString(cluster)
				}
				continue
			}
		}
		if !changed {
			changed = true
			b.Grow(len(text))
			b.WriteString(text[:start])
		}
		b.WriteString(kept)
	}

	if !changed {
		return text
	}
	return b.String()
}

// stripAttached removes emoji that segmentation attached to a non-emoji base,
// such as a skin-tone modifier following a space. The base is kept, along
// with combining marks that are not emoji.
func (c *Cleaner) stripAttached(cluster string) string {
	_, size := utf8.DecodeRuneInString(cluster)
	if size == len(cluster) {
		return cluster
	}
	rest := cluster[size:]
	if !strings.ContainsFunc(rest, c.attachedEmoji) {
		return cluster
	}

	var b strings.Builder
	b.WriteString(cluster[:size])
	dropped := false
	for _, r := range rest {
		if c.attachedEmoji(r) || (dropped && isVariationSelector(r)) {
			dropped = true
			continue
		}
		dropped = false
		b.WriteRune(r)
	}
	return b.String()
}

func (c *Cleaner) attachedEmoji(r rune) bool {
	if r < utf8.RuneSelf {
		return false
	}
	return isSkinTone(r) || c.rules.Match(string(r))
}
