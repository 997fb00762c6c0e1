package nlu

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/iwilltry42/bm25-go/bm25"

	"github.com/garyellow/campus-navigator/internal/logger"
	"github.com/garyellow/campus-navigator/internal/stringutil"
)

// Keyword lists. Multi-word entries are matched as whole phrases.
var (
	denyKeywords = []string{
		"no", "nope", "nah", "not yet", "not there", "not reached", "not really",
		"negative", "wait", "hold on", "haven't", "have not",
	}
	findTeacherKeywords = []string{
		"who is", "teacher", "faculty", "professor", "prof", "details of",
		"information on", "info on", "contact of", "email of", "phone of",
	}
	navigateKeywords = []string{
		"navigate", "directions", "direction", "how do i get", "how to get",
		"how can i get", "take me", "go to", "get to", "guide me", "route",
		"way to", "where is", "walk me", "path to", "show me the way",
	}
	helpKeywords     = []string{"help", "how does this work", "commands", "usage"}
	aboutKeywords    = []string{"who are you", "what are you", "what can you do"}
	thanksKeywords   = []string{"thanks", "thank you", "thank u", "appreciate it", "thx", "ty"}
	goodbyeKeywords  = []string{"bye", "goodbye", "good bye", "see you", "see ya", "take care", "good night"}
	greetingKeywords = []string{
		"hello", "hi", "hey", "hiya", "greetings", "good morning",
		"good afternoon", "good evening", "yo",
	}
)

// intentPhrases is the fallback corpus ranked with BM25 when no rule fires.
var intentPhrases = map[Intent][]string{
	IntentGreet:       {"hello", "hi", "hey", "greetings", "good morning", "good afternoon"},
	IntentGoodbye:     {"bye", "goodbye", "see you", "take care"},
	IntentThanks:      {"thanks", "thank you", "appreciate it"},
	IntentAbout:       {"who are you", "what are you", "what can you do"},
	IntentHelp:        {"help", "how does this work"},
	IntentNavigate:    {"navigate", "find", "go to", "reach", "how to get to", "directions", "from to", "where"},
	IntentFindTeacher: {"teacher", "faculty", "professor", "details of", "information on", "who is"},
}

// Rule labels a message with Intent when Pattern matches its normalised form.
// Higher Priority rules are tried first.
type Rule struct {
	Intent   Intent
	Priority int
	Pattern  *regexp.Regexp
}

// ClassifierOptions configures a Classifier.
type ClassifierOptions struct {
	AffirmTokens []string
	CancelTokens []string
	// MinScore is the lowest BM25 score accepted from the fallback ranking.
	MinScore float64
	Logger   *logger.Logger
}

// Classifier assigns an intent to a message. Keyword rules decide first; a
// BM25 ranking over intentPhrases covers free-form text.
type Classifier struct {
	rules    []Rule
	index    *bm25.BM25Okapi
	labels   []Intent
	minScore float64
	logger   *logger.Logger
}

// NewClassifier builds the rule table and the fallback index. A fallback
// index that cannot be built is logged and skipped; rules keep working.
func NewClassifier(opts ClassifierOptions) *Classifier {
	c := &Classifier{
		minScore: opts.MinScore,
		logger:   opts.Logger,
	}

	c.rules = []Rule{
		{Intent: IntentCancel, Priority: 100, Pattern: leadingPattern(opts.CancelTokens)},
		{Intent: IntentDeny, Priority: 90, Pattern: leadingPattern(denyKeywords)},
		{Intent: IntentAffirm, Priority: 85, Pattern: wholePattern(opts.AffirmTokens)},
		{Intent: IntentNavigate, Priority: 70, Pattern: containsPattern(navigateKeywords)},
		{Intent: IntentFindTeacher, Priority: 65, Pattern: containsPattern(findTeacherKeywords)},
		{Intent: IntentAbout, Priority: 60, Pattern: containsPattern(aboutKeywords)},
		{Intent: IntentHelp, Priority: 55, Pattern: containsPattern(helpKeywords)},
		{Intent: IntentThanks, Priority: 50, Pattern: containsPattern(thanksKeywords)},
		{Intent: IntentGoodbye, Priority: 45, Pattern: containsPattern(goodbyeKeywords)},
		{Intent: IntentGreet, Priority: 40, Pattern: leadingPattern(greetingKeywords)},
	}
	c.rules = slices.DeleteFunc(c.rules, func(r Rule) bool { return r.Pattern == nil })
	slices.SortStableFunc(c.rules, func(a, b Rule) int { return cmp.Compare(b.Priority, a.Priority) })

	var corpus []string
	for _, intent := range Intents() {
		for _, phrase := range intentPhrases[intent] {
			corpus = append(corpus, phrase)
			c.labels = append(c.labels, intent)
		}
	}
	index, err := bm25.NewBM25Okapi(corpus, stringutil.Tokens, 1.5, 0.75, nil)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Warn("Intent fallback index unavailable")
		}
		c.labels = nil
	} else {
		c.index = index
	}

	return c
}

// Classify returns the intent of text. It never fails: anything unmatched is
// IntentUnknown.
func (c *Classifier) Classify(text string) Intent {
	normalized := stringutil.Normalize(text)
	if normalized == "" {
		return IntentUnknown
	}

	for _, r := range c.rules {
		if r.Pattern.MatchString(normalized) {
			return r.Intent
		}
	}

	return c.rank(normalized)
}

func (c *Classifier) rank(normalized string) Intent {
	if c.index == nil {
		return IntentUnknown
	}
	tokens := stringutil.Tokens(normalized)
	if len(tokens) == 0 {
		return IntentUnknown
	}

	scores, err := c.index.GetScores(tokens)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Debug("Intent ranking failed")
		}
		return IntentUnknown
	}

	best, bestScore := -1, 0.0
	for i, s := range scores {
		if i >= len(c.labels) {
			break
		}
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 || bestScore < c.minScore {
		return IntentUnknown
	}
	return c.labels[best]
}

// quoteKeywords normalises and escapes keywords, longest first so that
// "good morning" is tried before "good".
func quoteKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = stringutil.Normalize(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		quoted = append(quoted, kw)
	}
	slices.SortFunc(quoted, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	for i, kw := range quoted {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	return quoted
}

func buildPattern(keywords []string, prefix, suffix string) *regexp.Regexp {
	quoted := quoteKeywords(keywords)
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(prefix + "(?:" + strings.Join(quoted, "|") + ")" + suffix)
}

// leadingPattern matches when the message starts with a keyword.
func leadingPattern(keywords []string) *regexp.Regexp {
	return buildPattern(keywords, `^`, `(?:\s|$)`)
}

// wholePattern matches when the message is a keyword, optionally with
// "please" or "thanks" around it.
func wholePattern(keywords []string) *regexp.Regexp {
	return buildPattern(keywords, `^(?:please\s+)?`, `(?:\s+(?:please|thanks|thank you))?$`)
}

// containsPattern matches a keyword anywhere on word boundaries.
func containsPattern(keywords []string) *regexp.Regexp {
	return buildPattern(keywords, `(?:^|\s)`, `(?:\s|$)`)
}
