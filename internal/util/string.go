// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// UNICODE: Rune-aware truncation preserves multi-byte characters.
// Tool output routinely carries emoji status markers and non-ASCII resource
// names, so nothing here slices strings by byte offset.

// PrefixRunes returns at most the first n runes of s, without an ellipsis.
func PrefixRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// StringWidth returns the display width of a string in terminal columns.
// Double-width characters (CJK, most emoji) count as 2 columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadRight pads s with spaces to the given display width.
// Strings already at or beyond width are returned unchanged.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// TruncateWidth truncates s to a maximum display width, appending "..."
// when anything was cut.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// RuneLen returns the number of runes in a string.
func RuneLen(s string) int {
	return len([]rune(s))
}

// =============================================================================
// OUTPUT LIMITS
// =============================================================================

// Limit describes what LimitOutput removed.
type Limit struct {
	// LinesTruncated is set when the line limit applied
	LinesTruncated bool

	// CharsTruncated is set when the character limit applied
	CharsTruncated bool

	// OriginalLines is the line count before truncation
	OriginalLines int

	// OriginalChars is the rune count before truncation
	OriginalChars int
}

// Truncated reports whether either limit applied.
func (l Limit) Truncated() bool {
	return l.LinesTruncated || l.CharsTruncated
}

// LimitOutput keeps at most maxLines lines and then at most maxChars runes of s.
// A limit of zero or less disables that check.
func LimitOutput(s string, maxLines, maxChars int) (string, Limit) {
	lim := Limit{
		OriginalLines: CountLines(s),
		OriginalChars: RuneLen(s),
	}

	if maxLines > 0 && lim.OriginalLines > maxLines {
		lines := strings.SplitAfterN(s, "\n", maxLines+1)
		s = strings.TrimSuffix(strings.Join(lines[:maxLines], ""), "\n")
		lim.LinesTruncated = true
	}

	if maxChars > 0 && RuneLen(s) > maxChars {
		s = PrefixRunes(s, maxChars)
		lim.CharsTruncated = true
	}

	return s, lim
}

// CountLines counts lines the way `wc -l` would for text with a trailing
// newline, and counts a final unterminated line as well.
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// FirstLines returns the first n lines of s.
func FirstLines(s string, n int) string {
	out, _ := LimitOutput(s, n, 0)
	return out
}
