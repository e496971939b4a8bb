// Package strings holds text helpers shared by the output formatters.
package strings

import (
	"strings"
)

// MinTruncateLen is the smallest maxLen TruncateLine honours: one rune plus
// the "..." marker.
const MinTruncateLen = 4

// TruncateLine flattens s onto one line and shortens it to at most maxLen
// runes, marking a cut with "...". Runs of whitespace, including newlines
// and tabs, collapse to a single space so multi-line values such as
// script bodies or policy descriptions fit in a table cell.
func TruncateLine(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
