// Package slug converts free-form note references into lookup keys and back
// into human-readable labels.
package slug

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Canonicalize lower-cases ref, collapses every run of characters outside
// [a-z0-9] into a single '-', and trims leading and trailing '-'.
// Canonicalize(Canonicalize(x)) == Canonicalize(x) for every x.
func Canonicalize(ref string) string {
	lower := strings.ToLower(ref)

	var b strings.Builder
	b.Grow(len(lower))
	pendingDash := false
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteByte(c)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// Prettify turns a key such as "leverage-points" into "Leverage Points".
// Empty segments are dropped; the rest of each segment keeps its casing.
func Prettify(key string) string {
	parts := strings.Split(key, "-")
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		words = append(words, string(unicode.ToUpper(r))+p[size:])
	}
	return strings.Join(words, " ")
}
