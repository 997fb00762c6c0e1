// Package dialogue drives a conversation: it keeps per-session state, starts
// step-confirmed walkthroughs and asks the user to pick when a name or place
// is ambiguous.
package dialogue

import "fmt"

// Mode is the conversation phase of a session.
type Mode int

// Modes
const (
	ModeIdle Mode = iota
	ModeAwaitingDisambiguation
	ModeNavigating
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeAwaitingDisambiguation:
		return "awaiting_disambiguation"
	case ModeNavigating:
		return "navigating"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is a declared mode.
func (m Mode) Valid() bool {
	return m >= ModeIdle && m <= ModeNavigating
}

// MarshalText encodes the mode by name so stored sessions stay readable.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	for _, candidate := range []Mode{ModeIdle, ModeAwaitingDisambiguation, ModeNavigating} {
		if candidate.String() == string(b) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", string(b))
}
