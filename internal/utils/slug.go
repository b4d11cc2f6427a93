package utils

import (
	"strings"
	"unicode"
)

// Slugify turns a human-readable name into a URL-safe identifier. Unicode
// letters are kept so non-ASCII tag names still get a usable slug.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // trim leading separators
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
