package disambig

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	domerrors "github.com/garyellow/campus-navigator/internal/errors"
	"github.com/garyellow/campus-navigator/internal/stringutil"
)

// indexPattern accepts "2", "#2", "no. 2", "number 2", "option 2", "2nd".
var indexPattern = regexp.MustCompile(`^(?:#\s*|(?:no\.?|num|number|option|choice)\s*)?(\d{1,3})(?:st|nd|rd|th)?[.!)]?$`)

var ordinals = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

// stopWords carry no information about which candidate is meant.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "one": {}, "ones": {}, "please": {}, "pls": {},
	"i": {}, "i'm": {}, "mean": {}, "meant": {}, "want": {}, "pick": {}, "choose": {},
	"select": {}, "that": {}, "this": {}, "with": {}, "in": {}, "from": {}, "of": {},
	"is": {}, "it": {}, "it's": {}, "its": {}, "who": {}, "me": {}, "my": {}, "for": {},
	"professor": {}, "prof": {}, "dr": {}, "mr": {}, "ms": {}, "mrs": {}, "teacher": {},
	"sir": {}, "madam": {}, "person": {}, "guy": {}, "lady": {}, "option": {}, "number": {},
}

// ApplyChoice maps a free-text or numbered selection to exactly one option.
// It tries, in order: a 1-based index or ordinal, an exact label or ID,
// word-prefix matching against label and detail, and finally a small edit
// distance per word. A selection matching several options is rejected rather
// than guessed.
func ApplyChoice(options []Option, selection string) (Option, error) {
	raw := strings.TrimSpace(selection)
	if raw == "" || len(options) == 0 {
		return Option{}, domerrors.InvalidChoice(selection)
	}

	words := meaningfulWords(raw)

	if n, ok := parseIndex(raw, words); ok {
		if n < 1 || n > len(options) {
			return Option{}, domerrors.InvalidChoice(selection)
		}
		return options[n-1], nil
	}

	if o, ok, err := exactMatch(options, raw); ok || err != nil {
		return o, err
	}

	if len(words) == 0 {
		return Option{}, domerrors.InvalidChoice(selection)
	}

	switch hits := filter(options, words, prefixMatch); len(hits) {
	case 1:
		return hits[0], nil
	case 0:
	default:
		return Option{}, domerrors.InvalidChoice(selection)
	}

	if hits := filter(options, words, fuzzyMatch); len(hits) == 1 {
		return hits[0], nil
	}
	return Option{}, domerrors.InvalidChoice(selection)
}

func parseIndex(raw string, words []string) (int, bool) {
	if m := indexPattern.FindStringSubmatch(stringutil.Fold(raw)); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	if len(words) == 1 {
		if n, ok := ordinals[words[0]]; ok {
			return n, true
		}
		if stringutil.IsNumeric(words[0]) {
			n, err := strconv.Atoi(words[0])
			return n, err == nil
		}
	}
	return 0, false
}

func exactMatch(options []Option, raw string) (Option, bool, error) {
	var hits []Option
	for _, o := range options {
		if stringutil.EqualFold(o.Label, raw) || stringutil.EqualFold(o.ID, raw) || stringutil.EqualFold(o.String(), raw) {
			hits = append(hits, o)
		}
	}
	switch len(hits) {
	case 0:
		return Option{}, false, nil
	case 1:
		return hits[0], true, nil
	default:
		return Option{}, false, domerrors.InvalidChoice(raw)
	}
}

func meaningfulWords(s string) []string {
	var out []string
	for _, w := range stringutil.Tokens(s) {
		if _, stop := stopWords[w]; !stop {
			out = append(out, w)
		}
	}
	return out
}

// filter keeps options for which every selection word matches some option word.
func filter(options []Option, words []string, match func(sel, word string) bool) []Option {
	var hits []Option
	for _, o := range options {
		candidate := stringutil.Tokens(o.Label + " " + o.Detail + " " + o.ID)
		if allMatch(words, candidate, match) {
			hits = append(hits, o)
		}
	}
	return hits
}

func allMatch(selection, candidate []string, match func(sel, word string) bool) bool {
	for _, s := range selection {
		found := false
		for _, w := range candidate {
			if match(s, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func prefixMatch(sel, word string) bool {
	return strings.HasPrefix(word, sel)
}

func fuzzyMatch(sel, word string) bool {
	limit := typoLimit(len(word))
	if limit == 0 {
		return false
	}
	return levenshtein.ComputeDistance(sel, word) <= limit
}

// typoLimit scales the tolerated edit distance with word length.
func typoLimit(length int) int {
	switch {
	case length < 3:
		return 0
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
