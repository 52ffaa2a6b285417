// Package textenc converts file bytes to text and back under a named encoding.
//
// Decoding is lenient: byte sequences that are not valid in the encoding are
// dropped instead of failing the read.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when none is configured.
const DefaultEncoding = "utf-8"

// Codec decodes and encodes text for one encoding.
type Codec struct {
	name string
	enc  encoding.Encoding // nil for UTF-8

	// replacement is U+FFFD in this encoding, nil if it cannot be represented.
	replacement []byte
}

// Lookup resolves a WHATWG encoding label such as "utf-8", "latin1" or "windows-1251".
// An empty label selects DefaultEncoding.
func Lookup(label string) (*Codec, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = DefaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return nil, fmt.Errorf("unnamed encoding %q: %w", label, err)
	}
	if name == "utf-8" {
		return &Codec{name: name}, nil
	}
	c := &Codec{name: name, enc: enc}
	if b, err := enc.NewEncoder().Bytes([]byte(string(utf8.RuneError))); err == nil && len(b) > 0 {
		c.replacement = b
	}
	return c, nil
}

// Name returns the canonical encoding name.
func (c *Codec) Name() string {
	return c.name
}

// Decode converts raw bytes to text, dropping anything that does not decode.
// A U+FFFD that is present in the source is kept.
func (c *Codec) Decode(data []byte) string {
	if c.enc == nil {
		return strings.ToValidUTF8(string(data), "")
	}
	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		// x/text decoders substitute rather than fail; fall back to the
		// UTF-8 view of the input if one ever does.
		return strings.ToValidUTF8(string(data), "")
	}
	if !bytes.ContainsRune(out, utf8.RuneError) {
		return string(out)
	}
	if c.replacement == nil {
		return dropReplacement(string(out))
	}
	return c.decodeStepwise(data)
}

// decodeStepwise decodes one source character at a time, so a U+FFFD
// substituted for invalid input can be told apart from an encoded U+FFFD.
func (c *Codec) decodeStepwise(data []byte) string {
	dec := c.enc.NewDecoder()
	dst := make([]byte, 64)
	var b strings.Builder
	b.Grow(len(data))

	for i := 0; i < len(data); {
		var nDst, nSrc int
		var err error
		for end := i + 1; ; end++ {
			atEOF := end >= len(data)
			if atEOF {
				end = len(data)
			}
			nDst, nSrc, err = dec.Transform(dst, data[i:end], atEOF)
			if nSrc > 0 || atEOF || !errors.Is(err, transform.ErrShortSrc) {
				break
			}
		}
		if nSrc == 0 {
			i++
			continue
		}
		if bytes.Equal(data[i:i+nSrc], c.replacement) {
			b.Write(dst[:nDst])
		} else {
			b.WriteString(dropReplacement(string(dst[:nDst])))
		}
		i += nSrc
	}
	return b.String()
}

// Encode converts text back to bytes in the codec's encoding.
func (c *Codec) Encode(text string) ([]byte, error) {
	if c.enc == nil {
		return []byte(text), nil
	}
	out, err := c.enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encoding to %s: %w", c.name, err)
	}
	return out, nil
}

func dropReplacement(s string) string {
	if !strings.ContainsRune(s, utf8.RuneError) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
}
