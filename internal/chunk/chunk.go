// Package chunk splits long responses into segments a chat platform accepts.
package chunk

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultLimit is the per-message character limit of common chat platforms.
const DefaultLimit = 2000

// Policy decides what happens to a single line longer than the limit.
type Policy int

const (
	// PolicyHardSplit cuts an over-long line at rune boundaries.
	PolicyHardSplit Policy = iota
	// PolicyKeep emits an over-long line as its own, oversized segment.
	PolicyKeep
	// PolicyReject fails the split with a lineTooLongError.
	PolicyReject
)

// ParsePolicy maps "split", "keep" or "reject" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "split", "hard-split":
		return PolicyHardSplit, nil
	case "keep":
		return PolicyKeep, nil
	case "reject":
		return PolicyReject, nil
	default:
		return PolicyHardSplit, fmt.Errorf("unknown chunk policy %q", s)
	}
}

// Segment is one deliverable piece of text. Continues is set when the next
// segment carries the rest of the same line, so no newline separates them.
type Segment struct {
	Text      string
	Continues bool
}

type lineTooLongError struct {
	line, length, limit int
}

func (e lineTooLongError) Error() string {
	return fmt.Sprintf("line %d is %d characters, limit is %d", e.line, e.length, e.limit)
}

// IsLineTooLong reports whether err came from PolicyReject.
func IsLineTooLong(err error) bool {
	var e lineTooLongError
	return errors.As(err, &e)
}

// Split greedily packs the lines of text into segments of at most limit
// characters (runes). A limit <= 0 disables splitting. Join(segments)
// reproduces text exactly.
func Split(text string, limit int, policy Policy) ([]Segment, error) {
	if text == "" {
		return nil, nil
	}
	if limit <= 0 {
		return []Segment{{Text: text}}, nil
	}

	var (
		out    []Segment
		cur    strings.Builder
		curLen int
		open   bool
	)
	flush := func() {
		if open {
			out = append(out, Segment{Text: cur.String()})
			cur.Reset()
			curLen, open = 0, false
		}
	}

	for i, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line)
		if n > limit {
			switch policy {
			case PolicyReject:
				return nil, lineTooLongError{line: i + 1, length: n, limit: limit}
			case PolicyKeep:
				flush()
				out = append(out, Segment{Text: line})
				continue
			default:
				flush()
				pieces := splitRunes(line, limit)
				for _, p := range pieces[:len(pieces)-1] {
					out = append(out, Segment{Text: p, Continues: true})
				}
				// the tail may still share a segment with the following lines
				line = pieces[len(pieces)-1]
				n = utf8.RuneCountInString(line)
			}
		}
		if open && curLen+1+n > limit {
			flush()
		}
		if open {
			cur.WriteByte('\n')
			curLen++
		}
		cur.WriteString(line)
		curLen += n
		open = true
	}
	flush()
	return out, nil
}

// Join reassembles segments produced by Split.
func Join(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		b.WriteString(s.Text)
		if i < len(segs)-1 && !s.Continues {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Texts returns the segment texts in delivery order.
func Texts(segs []Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Text
	}
	return out
}

func splitRunes(s string, size int) []string {
	var out []string
	for utf8.RuneCountInString(s) > size {
		cut := 0
		for i := 0; i < size; i++ {
			_, w := utf8.DecodeRuneInString(s[cut:])
			cut += w
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	return append(out, s)
}
