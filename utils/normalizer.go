package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes free-form text for keyword matching: lowercase,
// diacritics removed, anything outside [a-z0-9] and whitespace turned into a
// space, whitespace collapsed and trimmed. It never fails.
func Normalize(value string) string {
	lowered := strings.ToLower(value)

	// transform chains keep state, so one is built per call
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripper, lowered)
	if err != nil {
		folded = lowered
	}

	mapped := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, folded)

	return strings.Join(strings.Fields(mapped), " ")
}

// Tokens splits normalized text on single spaces.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}
