// Package normalize turns raw model output into display text.
package normalize

import (
	"regexp"
	"strings"
)

// NoResponse is returned when nothing displayable remains.
const NoResponse = "No response from the model."

// reasoningBlock matches a <think>...</think> block and the whitespace after it.
var reasoningBlock = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)

// Normalize strips reasoning blocks, trims surrounding whitespace and maps an
// empty result to NoResponse. Removal repeats until no block is left, since
// deleting an inner block can splice a new pair together; this keeps
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	out := raw
	for reasoningBlock.MatchString(out) {
		out = reasoningBlock.ReplaceAllString(out, "")
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return NoResponse
	}
	return out
}
