package dialogue

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/garyellow/campus-navigator/internal/campus"
	"github.com/garyellow/campus-navigator/internal/disambig"
	"github.com/garyellow/campus-navigator/internal/navigation"
)

// PendingKind says what a disambiguation choice completes.
type PendingKind int

// Pending request kinds
const (
	PendingTeacherDetails PendingKind = iota // show the chosen person's details
	PendingPersonOffice                      // navigate to the chosen person's office
	PendingDestination                       // the choice is the destination
	PendingOrigin                            // the choice is the origin
)

func (k PendingKind) String() string {
	switch k {
	case PendingTeacherDetails:
		return "teacher_details"
	case PendingPersonOffice:
		return "person_office"
	case PendingDestination:
		return "destination"
	case PendingOrigin:
		return "origin"
	default:
		return fmt.Sprintf("pending(%d)", int(k))
	}
}

// Pending is the request suspended while the user picks a candidate.
// Origin and Destination hold the location IDs already resolved, if any.
type Pending struct {
	Kind        PendingKind `json:"kind"`
	Key         string      `json:"key"`
	Origin      string      `json:"origin,omitempty"`
	Destination string      `json:"destination,omitempty"`
}

// Offer is a one-shot proposal to navigate somewhere; a "yes" as the next
// message accepts it.
type Offer struct {
	PersonID string `json:"person_id,omitempty"`
	Location string `json:"location"`
	Label    string `json:"label"`
}

// State is everything remembered about one session between messages.
type State struct {
	Mode        Mode              `json:"mode"`
	Origin      campus.Location   `json:"origin"`
	Destination campus.Location   `json:"destination"`
	Steps       []navigation.Step `json:"steps,omitempty"`
	StepIndex   int               `json:"step_index"`

	Candidates []disambig.Option `json:"candidates,omitempty"`
	Pending    *Pending          `json:"pending,omitempty"`

	Offer *Offer `json:"offer,omitempty"`

	// AwaitingOriginFor is the destination ID of a request that still needs
	// a starting point.
	AwaitingOriginFor string `json:"awaiting_origin_for,omitempty"`
	// LastLocation is the last place the user was known to be.
	LastLocation string `json:"last_location,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewState returns an idle state.
func NewState() *State {
	return &State{Mode: ModeIdle}
}

// Reset returns the session to Idle and drops every in-flight request.
// LastLocation survives.
func (s *State) Reset() {
	last, updated := s.LastLocation, s.UpdatedAt
	*s = State{Mode: ModeIdle, LastLocation: last, UpdatedAt: updated}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Steps = slices.Clone(s.Steps)
	c.Candidates = slices.Clone(s.Candidates)
	c.Origin.Aliases = slices.Clone(s.Origin.Aliases)
	c.Destination.Aliases = slices.Clone(s.Destination.Aliases)
	if s.Pending != nil {
		p := *s.Pending
		c.Pending = &p
	}
	if s.Offer != nil {
		o := *s.Offer
		c.Offer = &o
	}
	return &c
}

// CurrentStep returns the step awaiting confirmation.
func (s *State) CurrentStep() (navigation.Step, bool) {
	if s.Mode != ModeNavigating || s.StepIndex < 0 || s.StepIndex >= len(s.Steps) {
		return navigation.Step{}, false
	}
	return s.Steps[s.StepIndex], true
}

// Position is the last confirmed place on the active route: the arrival of
// the previous step, or the origin before the first confirmation.
func (s *State) Position() string {
	if s.Mode == ModeNavigating && s.StepIndex > 0 && s.StepIndex <= len(s.Steps) {
		return s.Steps[s.StepIndex-1].Arrival.ID
	}
	if s.Mode == ModeNavigating && s.Origin.ID != "" {
		return s.Origin.ID
	}
	return s.LastLocation
}

// Validate checks that the fields agree with the mode.
func (s *State) Validate() error {
	var errs []error
	switch s.Mode {
	case ModeIdle:
		if len(s.Steps) > 0 || len(s.Candidates) > 0 || s.Pending != nil {
			errs = append(errs, errors.New("idle session carries an active request"))
		}
	case ModeAwaitingDisambiguation:
		if len(s.Candidates) < 2 {
			errs = append(errs, fmt.Errorf("disambiguation needs at least 2 candidates, got %d", len(s.Candidates)))
		}
		if s.Pending == nil {
			errs = append(errs, errors.New("disambiguation without a pending request"))
		}
	case ModeNavigating:
		if len(s.Steps) == 0 {
			errs = append(errs, errors.New("navigation without steps"))
		} else if s.StepIndex < 0 || s.StepIndex >= len(s.Steps) {
			errs = append(errs, fmt.Errorf("step index %d out of range [0,%d)", s.StepIndex, len(s.Steps)))
		}
		if s.Destination.ID == "" {
			errs = append(errs, errors.New("navigation without destination"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid mode %d", int(s.Mode)))
	}
	return errors.Join(errs...)
}
