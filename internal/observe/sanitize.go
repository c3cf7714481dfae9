// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package observe

import "strings"

// SanitizeOPAL prepares a caller-supplied OPAL pipeline for the query payload.
//
// Agents frequently pass the query as a string literal ("filter x == \"y\"").
// When the trimmed input is wrapped in a matching pair of double or single
// quotes, the outer pair is removed and \", \' and \\ are unescaped. Any other
// input is returned unchanged, so the function is idempotent on unquoted text.
//
// Only the first and last characters are checked. A pipeline that happens to
// begin and end with literals of the same quote, such as "a" | "b", is
// treated as wrapped and becomes a" | "b.
func SanitizeOPAL(q string) string {
	trimmed := strings.TrimSpace(q)
	if !isQuoteWrapped(trimmed) {
		return q
	}
	return unescape(trimmed[1 : len(trimmed)-1])
}

// isQuoteWrapped reports whether s starts and ends with the same quote
// character and the closing quote is not itself escaped.
func isQuoteWrapped(s string) bool {
	if len(s) < 2 {
		return false
	}
	quote := s[0]
	if quote != '"' && quote != '\'' {
		return false
	}
	if s[len(s)-1] != quote {
		return false
	}

	// Count the backslashes before the closing quote: an odd run escapes it.
	backslashes := 0
	for i := len(s) - 2; i > 0 && s[i] == '\\'; i-- {
		backslashes++
	}
	return backslashes%2 == 0
}

// unescape resolves \" \' and \\; other backslash sequences are kept verbatim
// because OPAL regexes use them.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '"', '\'', '\\':
				b.WriteByte(s[i+1])
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
