// Package normalize folds spreadsheet column names and cell values into the
// comparable forms used by the matcher.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var headerNoise = runes.Predicate(func(r rune) bool {
	return unicode.IsSpace(r) || r == '_' || r == '-' || r == '.'
})

// Value normalizes a cell or answer value: NFKC, trimmed, lower-cased.
// Values are only ever compared in this form.
func Value(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}

// Header compacts a column name for alias comparison: " Water Level " and
// "water_level" both become "waterlevel".
func Header(s string) string {
	out, _, err := transform.String(transform.Chain(norm.NFKC, runes.Remove(headerNoise)), s)
	if err != nil {
		out = strings.Join(strings.Fields(s), "")
	}
	return strings.ToLower(out)
}

// ContainsAny reports whether s contains any of the given substrings.
func ContainsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
