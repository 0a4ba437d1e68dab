// Package errfmt bounds server-supplied text before it is embedded in error
// strings or log fields.
package errfmt

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLen caps error text to prevent unbounded propagation.
const MaxLen = 4096

// MaxLineLen caps raw wire lines quoted in diagnostics.
const MaxLineLen = 512

// truncateUTF8 caps s at limit bytes, backtracking to a valid UTF-8 boundary.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	end := limit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

// Truncate caps a string at MaxLen bytes with UTF-8-safe truncation.
func Truncate(s string) string {
	return truncateUTF8(s, MaxLen)
}

// Line renders a raw wire line for a diagnostic: control characters are
// replaced with spaces and the result is capped at MaxLineLen bytes, with
// a trailing ellipsis when something was cut.
func Line(b []byte) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, string(b))
	out := truncateUTF8(s, MaxLineLen)
	if len(out) < len(s) {
		return out + "..."
	}
	return out
}
