// Package naming derives the keys and file names used for servers on disk.
package naming

import (
	"strings"
	"unicode"
)

// Sanitize lowercases name, maps every character that is neither
// alphabetic nor numeric, other than '-' and '_', to '-', and trims
// leading and trailing dashes.
// Sanitize is idempotent.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if isAlphanumeric(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// isAlphanumeric covers all numerics (Nd, Nl, No) and the combining marks
// that are part of a script's alphabet, not only letters and decimal digits.
func isAlphanumeric(r rune) bool {
	return unicode.In(r, unicode.L, unicode.Nd, unicode.Nl, unicode.No, unicode.Other_Alphabetic)
}
