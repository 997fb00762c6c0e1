// Package stringutil provides text normalisation shared by the classifier,
// the entity extractor and the disambiguation resolver.
package stringutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s in a case-insensitive comparable form.
// Full-width characters are mapped to their ASCII forms first (NFKC).
func Fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

// EqualFold reports whether a and b are equal after Fold and trimming.
func EqualFold(a, b string) bool {
	return Fold(strings.TrimSpace(a)) == Fold(strings.TrimSpace(b))
}

// Normalize folds s, replaces punctuation other than word joiners with spaces
// and collapses runs of whitespace.
// Hyphens, underscores and apostrophes are kept because they occur inside
// room codes ("AB1-303") and contractions ("i'm").
func Normalize(s string) string {
	folded := Fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '\'':
			b.WriteRune(r)
			space = false
		case !space:
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokens splits the normalised form of s into words. Blank input yields nil.
func Tokens(s string) []string {
	normalized := Normalize(s)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// Title capitalises each word, for rendering names typed in lower case.
func Title(s string) string {
	return cases.Title(language.Und).String(s)
}

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TruncateRunes cuts s to at most maxRunes runes, appending "..." when cut.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
