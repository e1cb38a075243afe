package products

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify derives a URL-safe identifier from a name: accents are stripped
// via NFKD decomposition, anything outside [a-z0-9] collapses to a single
// hyphen, and leading/trailing hyphens are trimmed.
func Slugify(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
