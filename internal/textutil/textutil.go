// Package textutil holds small string helpers shared across the module.
package textutil

import "fmt"

const (
	// DefaultMaxLength is the default maximum length for truncated strings.
	DefaultMaxLength = 500

	// charsPerToken is the rough characters-per-token ratio used by the
	// history budget. Deliberately tokenizer-free so eviction stays
	// deterministic across providers.
	charsPerToken = 4

	// perTurnOverhead accounts for role and framing tokens each turn adds
	// on the wire regardless of content length.
	perTurnOverhead = 4
)

// Truncate shortens s to at most maxLen characters, appending a suffix that
// records the original total length so callers know data was omitted.
// If maxLen is zero or negative, [DefaultMaxLength] is used instead.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

// EstimateTokens returns the token cost attributed to a turn with the given
// content: ceil(len/4) plus a fixed per-turn overhead. The estimate only has
// to be deterministic and monotonic in content length, not exact.
func EstimateTokens(content string) int {
	return (len(content)+charsPerToken-1)/charsPerToken + perTurnOverhead
}
