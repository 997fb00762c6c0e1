package dialogue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/campus-navigator/internal/campus"
	"github.com/garyellow/campus-navigator/internal/disambig"
	"github.com/garyellow/campus-navigator/internal/navigation"
)

func navigatingState() *State {
	return &State{
		Mode:        ModeNavigating,
		Origin:      campus.Location{ID: "A"},
		Destination: campus.Location{ID: "C", Aliases: []string{"cee"}},
		Steps: []navigation.Step{
			{Index: 0, Instruction: "go", Arrival: campus.Location{ID: "B"}},
			{Index: 1, Instruction: "go", Arrival: campus.Location{ID: "C"}},
		},
		StepIndex:    1,
		LastLocation: "B",
	}
}

func TestStateValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		state   *State
		wantErr bool
	}{
		{"idle", NewState(), false},
		{"navigating", navigatingState(), false},
		{"index out of range", func() *State { s := navigatingState(); s.StepIndex = 2; return s }(), true},
		{"navigating without steps", &State{Mode: ModeNavigating, Destination: campus.Location{ID: "C"}}, true},
		{"idle with steps", func() *State { s := navigatingState(); s.Mode = ModeIdle; return s }(), true},
		{"awaiting without pending", &State{Mode: ModeAwaitingDisambiguation, Candidates: []disambig.Option{{ID: "1"}, {ID: "2"}}}, true},
		{"awaiting", &State{Mode: ModeAwaitingDisambiguation, Candidates: []disambig.Option{{ID: "1"}, {ID: "2"}}, Pending: &Pending{}}, false},
		{"unknown mode", &State{Mode: Mode(9)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.state.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStateResetKeepsLastLocation(t *testing.T) {
	t.Parallel()
	s := navigatingState()
	s.Offer = &Offer{Location: "X"}
	s.Reset()

	assert.Equal(t, ModeIdle, s.Mode)
	assert.Empty(t, s.Steps)
	assert.Nil(t, s.Offer)
	assert.Equal(t, "B", s.LastLocation)
	assert.NoError(t, s.Validate())
}

func TestStateClone(t *testing.T) {
	t.Parallel()
	s := navigatingState()
	s.Pending = &Pending{Kind: PendingOrigin, Destination: "C"}
	s.Offer = &Offer{Location: "C"}

	c := s.Clone()
	c.Steps[0].Instruction = "changed"
	c.Destination.Aliases[0] = "changed"
	c.Pending.Destination = "changed"
	c.Offer.Location = "changed"

	assert.Equal(t, "go", s.Steps[0].Instruction)
	assert.Equal(t, "cee", s.Destination.Aliases[0])
	assert.Equal(t, "C", s.Pending.Destination)
	assert.Equal(t, "C", s.Offer.Location)
	assert.Nil(t, (*State)(nil).Clone())
}

func TestStatePosition(t *testing.T) {
	t.Parallel()
	s := navigatingState()
	assert.Equal(t, "B", s.Position())

	s.StepIndex = 0
	assert.Equal(t, "A", s.Position())

	s.Reset()
	assert.Equal(t, "B", s.Position())
}

func TestStateJSON(t *testing.T) {
	t.Parallel()
	s := navigatingState()

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"navigating"`)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ModeNavigating, decoded.Mode)
	assert.Equal(t, s.Steps, decoded.Steps)

	assert.Error(t, json.Unmarshal([]byte(`{"mode":"dancing"}`), &decoded))
}

func TestTokenSetAffirms(t *testing.T) {
	t.Parallel()
	ts := NewTokenSet([]string{"yes", "ok", "reached", "i'm here"})

	tests := []struct {
		text string
		want bool
	}{
		{"yes", true},
		{"Yes!", true},
		{"ok, reached", true},
		{"I'm here", true},
		{"not yet", false},
		{"I haven't reached", false},
		{"no", false},
		{"yesterday", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ts.Affirms(tt.text), tt.text)
	}
}
