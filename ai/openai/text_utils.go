package openai

import (
	"strings"
	"unicode"
)

// trimSpan removes surrounding punctuation and whitespace from a tagged span.
func trimSpan(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(".,!?;:\"'()[]{}—–", r)
	})
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
