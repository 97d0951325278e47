// Package resolver computes hierarchical heading anchors and rewrites
// in-document and cross-document references into absolute URLs.
package resolver

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify turns heading text into an anchor id fragment: lower-cased,
// NFC-normalized, Unicode letters (including Cyrillic) kept as literal
// characters, whitespace and "/" replaced with "-", everything outside
// letters, digits, "_", "-" and "." stripped.
func Slugify(s string) string {
	s = norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r) || r == '/':
			b.WriteRune('-')
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}
