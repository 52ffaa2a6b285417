package cleaner

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/kyokomi/emoji/v2"
)

// Ruleset decides whether a grapheme cluster is an emoji.
type Ruleset interface {
	Match(cluster string) bool
}

const (
	regionalIndicatorA = 0x1F1E6
	regionalIndicatorZ = 0x1F1FF
	skinToneLight      = 0x1F3FB
	skinToneDark       = 0x1F3FF
)

// SetRuleset matches clusters against a fixed table of emoji sequences.
//
// A cluster matches when, ignoring variation selectors, it equals a table
// entry, or starts with a non-ASCII rune that is itself a table entry
// (skin-tone, ZWJ and tag variants of a known base), or starts with a
// skin-tone modifier, or is made only of regional indicators.
type SetRuleset struct {
	sequences map[string]struct{}
	bases     map[rune]struct{}
}

// NewRuleset builds a SetRuleset from the given emoji sequences.
func NewRuleset(seqs ...string) *SetRuleset {
	rs := &SetRuleset{
		sequences: make(map[string]struct{}, len(seqs)),
		bases:     make(map[rune]struct{}),
	}
	for _, s := range seqs {
		rs.add(s)
	}
	return rs
}

func (rs *SetRuleset) add(seq string) {
	seq = stripVariation(strings.TrimSpace(seq))
	if seq == "" {
		return
	}
	rs.sequences[seq] = struct{}{}
	if r, size := utf8.DecodeRuneInString(seq); size == len(seq) && r >= utf8.RuneSelf {
		rs.bases[r] = struct{}{}
	}
}

// Len returns the number of distinct sequences in the table.
func (rs *SetRuleset) Len() int {
	return len(rs.sequences)
}

// Match implements Ruleset.
func (rs *SetRuleset) Match(cluster string) bool {
	if cluster == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(cluster)
	if first < utf8.RuneSelf && utf8.RuneCountInString(cluster) == 1 {
		return false
	}
	if isSkinTone(first) || allRegionalIndicators(cluster) {
		return true
	}
	norm := stripVariation(cluster)
	if _, ok := rs.sequences[norm]; ok {
		return true
	}
	_, ok := rs.bases[first]
	return ok
}

var (
	defaultOnce    sync.Once
	defaultRuleset *SetRuleset
)

// DefaultRuleset returns the ruleset built from the kyokomi/emoji code table.
// It is built on first use and shared afterwards.
func DefaultRuleset() *SetRuleset {
	defaultOnce.Do(func() {
		codes := emoji.CodeMap()
		seqs := make([]string, 0, len(codes))
		for _, seq := range codes {
			seqs = append(seqs, seq)
		}
		defaultRuleset = NewRuleset(seqs...)
	})
	return defaultRuleset
}

func stripVariation(s string) string {
	if !strings.ContainsFunc(s, isVariationSelector) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isVariationSelector(r) {
			return -1
		}
		return r
	}, s)
}

func isVariationSelector(r rune) bool {
	return r == 0xFE0E || r == 0xFE0F
}

func isSkinTone(r rune) bool {
	return r >= skinToneLight && r <= skinToneDark
}

func allRegionalIndicators(s string) bool {
	for _, r := range s {
		if r < regionalIndicatorA || r > regionalIndicatorZ {
			return false
		}
	}
	return true
}
