// Package utils holds small helpers shared across layers with no domain
// dependencies.
package utils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// asciiDigits maps Arabic-Indic (U+0660..U+0669) and extended
// Arabic-Indic / Persian (U+06F0..U+06F9) digits to ASCII.
var asciiDigits = runes.Map(func(r rune) rune {
	switch {
	case r >= '٠' && r <= '٩':
		return '0' + (r - '٠')
	case r >= '۰' && r <= '۹':
		return '0' + (r - '۰')
	}
	return r
})

// NormalizeDigits rewrites Arabic-Indic and Persian digits in s as ASCII.
func NormalizeDigits(s string) string {
	out, _, err := transform.String(asciiDigits, s)
	if err != nil {
		return s
	}
	return out
}

// ParseCode parses a post code: a non-empty run of decimal digits (any of
// the supported scripts) after trimming whitespace. Signs, separators and
// values outside int64 are rejected.
func ParseCode(s string) (int64, bool) {
	s = NormalizeDigits(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
