package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/campus-navigator/internal/campus"
	"github.com/garyellow/campus-navigator/internal/config"
)

func newClassifier() *Classifier {
	cfg := config.DefaultDialogueConfig()
	return NewClassifier(ClassifierOptions{
		AffirmTokens: cfg.AffirmTokens,
		CancelTokens: cfg.CancelTokens,
		MinScore:     cfg.ClassifierMinScore,
	})
}

func sampleExtractor(t *testing.T) *Extractor {
	t.Helper()
	cat, err := campus.NewCatalog(campus.SampleDataset())
	require.NoError(t, err)
	return NewExtractor(cat)
}

func TestIntentString(t *testing.T) {
	t.Parallel()

	seen := make(map[string]Intent)
	for _, intent := range Intents() {
		name := intent.String()
		assert.NotContains(t, name, "intent(", "intent %d has no label", int(intent))
		if prev, dup := seen[name]; dup {
			t.Errorf("label %q shared by %d and %d", name, int(prev), int(intent))
		}
		seen[name] = intent
	}
	assert.Equal(t, "find_teacher", IntentFindTeacher.String())
	assert.Equal(t, "intent(99)", Intent(99).String())
}

func TestClassify(t *testing.T) {
	t.Parallel()
	c := newClassifier()

	tests := []struct {
		text string
		want Intent
	}{
		{"Hello!", IntentGreet},
		{"good morning", IntentGreet},
		{"bye", IntentGoodbye},
		{"Thank you so much", IntentThanks},
		{"who are you?", IntentAbout},
		{"help", IntentHelp},
		{"How do I get to the canteen?", IntentNavigate},
		{"hi, take me to the library", IntentNavigate},
		{"navigate from AB1-303 to AB2-112", IntentNavigate},
		{"Who is Sneha?", IntentFindTeacher},
		{"details of professor Aarav", IntentFindTeacher},
		{"yes", IntentAffirm},
		{"Reached", IntentAffirm},
		{"ok thanks", IntentAffirm},
		{"I'm here", IntentAffirm},
		{"not yet", IntentDeny},
		{"no", IntentDeny},
		{"cancel", IntentCancel},
		{"Stop the navigation", IntentCancel},
		{"never mind", IntentCancel},
		{"", IntentUnknown},
		{"   ", IntentUnknown},
		{"xyzzy plugh", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, c.Classify(tt.text))
		})
	}
}

func TestClassify_Fallback(t *testing.T) {
	t.Parallel()
	c := newClassifier()

	assert.Equal(t, IntentNavigate, c.Classify("find the canteen"))
	assert.Equal(t, IntentNavigate, c.Classify("from AB1 303 to AB2 112"))
}

func TestClassify_CustomTokens(t *testing.T) {
	t.Parallel()
	c := NewClassifier(ClassifierOptions{
		AffirmTokens: []string{"aye"},
		CancelTokens: []string{"halt"},
	})

	assert.Equal(t, IntentAffirm, c.Classify("Aye"))
	assert.Equal(t, IntentCancel, c.Classify("halt please"))
	assert.NotEqual(t, IntentAffirm, c.Classify("yes"))
}

func TestClassify_RulesOrdered(t *testing.T) {
	t.Parallel()
	rules := newClassifier().rules
	require.NotEmpty(t, rules)
	assert.Equal(t, IntentCancel, rules[0].Intent)
	for i := 1; i < len(rules); i++ {
		assert.GreaterOrEqual(t, rules[i-1].Priority, rules[i].Priority)
	}
}

func TestExtract_RoomCodes(t *testing.T) {
	t.Parallel()
	e := sampleExtractor(t)

	for _, text := range []string{
		"navigate from AB1-303 to AB2-112",
		"navigate from ab1_303 to ab2_112",
		"from ab1 303 to ab2 112 please",
	} {
		ent := e.Extract(text)
		require.Len(t, ent.Mentions, 2, text)
		assert.Equal(t, []string{"AB1_303"}, ent.Mentions[0].IDs)
		assert.Equal(t, RoleOrigin, ent.Mentions[0].Role)
		assert.Equal(t, []string{"AB2_112"}, ent.Mentions[1].IDs)
		assert.Equal(t, RoleDestination, ent.Mentions[1].Role)
		assert.Equal(t, text, ent.Text)
	}
}

func TestExtract_AliasesAndRoles(t *testing.T) {
	t.Parallel()
	e := sampleExtractor(t)

	ent := e.Extract("I'm at the library, how do I get to the food court?")
	require.Len(t, ent.Mentions, 2)
	assert.Equal(t, []string{"LIBRARY_ENTRANCE"}, ent.Mentions[0].IDs)
	assert.Equal(t, RoleCurrent, ent.Mentions[0].Role)
	assert.Equal(t, []string{"CANTEEN"}, ent.Mentions[1].IDs)
	assert.Equal(t, RoleDestination, ent.Mentions[1].Role)

	ent = e.Extract("canteen")
	require.Len(t, ent.Mentions, 1)
	assert.Equal(t, RoleNone, ent.Mentions[0].Role)
	assert.Len(t, ent.WithRole(RoleNone), 1)
}

func TestExtract_LongestPhraseWins(t *testing.T) {
	t.Parallel()
	e := sampleExtractor(t)

	ent := e.Extract("go to the ab1 entrance")
	require.Len(t, ent.Mentions, 1)
	assert.Equal(t, "ab1 entrance", ent.Mentions[0].Phrase)
	assert.Equal(t, []string{"AB1_ENTRANCE"}, ent.Mentions[0].IDs)
}

func TestExtract_UnknownCode(t *testing.T) {
	t.Parallel()
	e := sampleExtractor(t)

	ent := e.Extract("take me to AB9-101")
	require.Len(t, ent.Mentions, 1)
	m := ent.Mentions[0]
	assert.False(t, m.Known())
	assert.Equal(t, "AB9_101", m.Phrase)
	assert.Equal(t, RoleDestination, m.Role)
}

func TestExtract_People(t *testing.T) {
	t.Parallel()
	e := sampleExtractor(t)

	ent := e.Extract("Who is sneha?")
	assert.Equal(t, []string{"Sneha"}, ent.People)
	assert.Empty(t, ent.PersonQuery)
	assert.True(t, ent.HasPeople())

	ent = e.Extract("take me to Aayush's office")
	assert.Equal(t, []string{"Aayush"}, ent.People)

	ent = e.Extract("who is professor Rahul")
	assert.Empty(t, ent.People)
	assert.Equal(t, "Rahul", ent.PersonQuery)

	ent = e.Extract("hello there")
	assert.True(t, ent.Empty())
}

type sharedAliasGazetteer struct{}

func (sharedAliasGazetteer) Phrases() []string { return []string{"lift"} }

func (sharedAliasGazetteer) LocationsMatching(string) []campus.Location {
	return []campus.Location{{ID: "AB2_LIFT"}, {ID: "AB1_LIFT"}}
}

func (sharedAliasGazetteer) PeopleByFirstName(string) []campus.Person { return nil }

func TestExtract_SharedAlias(t *testing.T) {
	t.Parallel()
	e := NewExtractor(sharedAliasGazetteer{})

	ent := e.Extract("to the lift")
	require.Len(t, ent.Mentions, 1)
	assert.True(t, ent.Mentions[0].Ambiguous())
	assert.Equal(t, []string{"AB1_LIFT", "AB2_LIFT"}, ent.Mentions[0].IDs)
}
