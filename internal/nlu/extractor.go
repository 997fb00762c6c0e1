package nlu

import (
	"regexp"
	"slices"
	"strings"

	"github.com/garyellow/campus-navigator/internal/campus"
	"github.com/garyellow/campus-navigator/internal/stringutil"
)

// Gazetteer is the catalog view the extractor needs.
type Gazetteer interface {
	Phrases() []string
	LocationsMatching(text string) []campus.Location
	PeopleByFirstName(name string) []campus.Person
}

var (
	// buildingCode matches the first half of a room code such as "ab1" in "ab1 101".
	buildingCode = regexp.MustCompile(`^[a-z]{1,4}\d{1,2}$`)
	roomNumber   = regexp.MustCompile(`^\d{1,4}$`)
)

var roleWords = map[string]Role{
	"from":    RoleOrigin,
	"to":      RoleDestination,
	"towards": RoleDestination,
	"toward":  RoleDestination,
	"reach":   RoleDestination,
	"till":    RoleDestination,
	"until":   RoleDestination,
	"at":      RoleCurrent,
	"near":    RoleCurrent,
	"in":      RoleCurrent,
	"inside":  RoleCurrent,
	"outside": RoleCurrent,
}

// fillers may sit between a role word and the place it introduces.
var fillers = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "my": {}, "room": {}, "block": {},
}

// personTriggers precede the name in a lookup ("who is X", "professor X").
var personTriggers = [][]string{
	{"who", "is"},
	{"details", "of"},
	{"information", "on"},
	{"info", "on"},
	{"teacher"},
	{"professor"},
	{"prof"},
	{"dr"},
	{"faculty"},
}

var personFillers = map[string]struct{}{
	"the": {}, "a": {}, "teacher": {}, "professor": {}, "prof": {}, "dr": {},
	"mr": {}, "ms": {}, "mrs": {}, "named": {}, "called": {},
}

// Extractor finds location and person mentions in free text.
type Extractor struct {
	gazetteer Gazetteer
	phrases   map[string][]string // token key -> location IDs
	maxTokens int
}

// NewExtractor indexes every catalog phrase by its token sequence.
func NewExtractor(g Gazetteer) *Extractor {
	e := &Extractor{gazetteer: g, phrases: make(map[string][]string)}
	for _, phrase := range g.Phrases() {
		tokens := tokenize(phrase)
		if len(tokens) == 0 {
			continue
		}
		key := strings.Join(tokens, " ")
		for _, loc := range g.LocationsMatching(phrase) {
			if !slices.Contains(e.phrases[key], loc.ID) {
				e.phrases[key] = append(e.phrases[key], loc.ID)
			}
		}
		e.maxTokens = max(e.maxTokens, len(tokens))
	}
	for key := range e.phrases {
		slices.Sort(e.phrases[key])
	}
	return e
}

// Extract scans text left to right. At each position the longest catalog
// phrase wins; code-like pairs the catalog does not know ("ab1 101") become
// mentions without IDs.
func (e *Extractor) Extract(text string) Entities {
	ent := Entities{Text: text}
	tokens := tokenize(text)
	used := make([]bool, len(tokens))

	for i := 0; i < len(tokens); {
		if ids, n := e.longestPhrase(tokens[i:]); n > 0 {
			ent.Mentions = append(ent.Mentions, Mention{
				Phrase: strings.Join(tokens[i:i+n], " "),
				Role:   roleBefore(tokens, i),
				IDs:    slices.Clone(ids),
			})
			markUsed(used, i, n)
			i += n
			continue
		}
		if i+1 < len(tokens) && buildingCode.MatchString(tokens[i]) && roomNumber.MatchString(tokens[i+1]) {
			ent.Mentions = append(ent.Mentions, Mention{
				Phrase: strings.ToUpper(tokens[i] + "_" + tokens[i+1]),
				Role:   roleBefore(tokens, i),
			})
			markUsed(used, i, 2)
			i += 2
			continue
		}
		i++
	}

	for i, tok := range tokens {
		if used[i] {
			continue
		}
		people := e.gazetteer.PeopleByFirstName(tok)
		if len(people) == 0 {
			continue
		}
		name := people[0].FirstName
		if !slices.Contains(ent.People, name) {
			ent.People = append(ent.People, name)
		}
	}

	if len(ent.People) == 0 {
		ent.PersonQuery = personQuery(tokens, used)
	}

	return ent
}

func (e *Extractor) longestPhrase(tokens []string) ([]string, int) {
	for n := min(e.maxTokens, len(tokens)); n > 0; n-- {
		if ids, ok := e.phrases[strings.Join(tokens[:n], " ")]; ok {
			return ids, n
		}
	}
	return nil, 0
}

func markUsed(used []bool, start, n int) {
	for j := start; j < start+n; j++ {
		used[j] = true
	}
}

// roleBefore looks back from start over filler words for a role word.
func roleBefore(tokens []string, start int) Role {
	for j := start - 1; j >= 0; j-- {
		if role, ok := roleWords[tokens[j]]; ok {
			return role
		}
		if _, ok := fillers[tokens[j]]; !ok {
			return RoleNone
		}
	}
	return RoleNone
}

// personQuery returns the capitalised word after a lookup trigger, if any.
func personQuery(tokens []string, used []bool) string {
	for i := range tokens {
		for _, trigger := range personTriggers {
			if i+len(trigger) > len(tokens) || !slices.Equal(tokens[i:i+len(trigger)], trigger) {
				continue
			}
			for j := i + len(trigger); j < len(tokens); j++ {
				if used[j] {
					break
				}
				if _, ok := personFillers[tokens[j]]; ok {
					continue
				}
				if _, ok := roleWords[tokens[j]]; ok || stringutil.IsNumeric(tokens[j]) {
					break
				}
				return stringutil.Title(tokens[j])
			}
		}
	}
	return ""
}

// tokenize normalises text and splits room codes on their separators so
// "AB1-303", "ab1_303" and "ab1 303" produce the same tokens. A trailing
// possessive is dropped.
func tokenize(text string) []string {
	normalized := strings.NewReplacer("-", " ", "_", " ").Replace(stringutil.Normalize(text))
	fields := strings.Fields(normalized)
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimSuffix(f, "'s")
		f = strings.Trim(f, "'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
