package dialogue

import (
	"slices"
	"strings"

	"github.com/garyellow/campus-navigator/internal/stringutil"
)

// Affirmer decides whether a message confirms the current step or offer.
type Affirmer interface {
	Affirms(text string) bool
}

var negations = []string{"not", "no", "nope", "never", "haven't", "havent", "didn't", "didnt", "don't", "dont", "isn't", "yet"}

// TokenSet affirms when the message contains one of its phrases as whole
// words and no negation word.
type TokenSet struct {
	phrases [][]string
}

// NewTokenSet builds a TokenSet from phrases such as "yes" or "i'm here".
func NewTokenSet(phrases []string) *TokenSet {
	ts := &TokenSet{}
	for _, p := range phrases {
		if words := stringutil.Tokens(p); len(words) > 0 {
			ts.phrases = append(ts.phrases, words)
		}
	}
	return ts
}

// Affirms implements Affirmer.
func (ts *TokenSet) Affirms(text string) bool {
	words := stringutil.Tokens(text)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if slices.Contains(negations, w) {
			return false
		}
	}
	for _, phrase := range ts.phrases {
		if containsRun(words, phrase) {
			return true
		}
	}
	return false
}

func containsRun(words, run []string) bool {
	if len(run) > len(words) {
		return false
	}
	needle := " " + strings.Join(run, " ") + " "
	return strings.Contains(" "+strings.Join(words, " ")+" ", needle)
}
