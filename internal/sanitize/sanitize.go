package sanitize

import (
	"html"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug derives a URL-safe identifier from a post title: lowercase,
// diacritics stripped, runs of anything outside [a-z0-9] collapsed to a
// single hyphen. Deterministic: the same title always yields the same
// slug.
func Slug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	if folded, _, err := transform.String(deaccent, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Escape HTML-escapes user supplied markup before it is stored.
func Escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// Decode reverses Escape for display paths that want the raw text back.
func Decode(s string) string {
	return html.UnescapeString(s)
}
