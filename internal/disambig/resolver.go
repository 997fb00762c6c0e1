// Package disambig narrows several candidates sharing a lookup key down to
// one, either immediately or from the user's reply to a numbered list.
package disambig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/garyellow/campus-navigator/internal/campus"
	"github.com/garyellow/campus-navigator/internal/sliceutil"
	"github.com/garyellow/campus-navigator/internal/stringutil"
)

// Option is one candidate presented to the user.
type Option struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

// String renders "John Doe (Engineering)".
func (o Option) String() string {
	if o.Detail == "" {
		return o.Label
	}
	return fmt.Sprintf("%s (%s)", o.Label, o.Detail)
}

// Kind is the outcome of Resolve.
type Kind int

// Resolve outcomes
const (
	NotFound Kind = iota
	Resolved
	NeedsChoice
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Resolved:
		return "resolved"
	case NeedsChoice:
		return "needs_choice"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result carries the outcome of Resolve. Chosen is set for Resolved,
// Options for NeedsChoice.
type Result struct {
	Kind    Kind
	Key     string
	Chosen  Option
	Options []Option
}

// Resolve classifies candidates by count after removing duplicate IDs.
// NeedsChoice options are sorted by label (case-insensitive), then ID, so the
// same input always yields the same numbered list.
func Resolve(key string, candidates []Option) Result {
	unique := sliceutil.Deduplicate(slices.Clone(candidates), func(o Option) string { return o.ID })
	switch len(unique) {
	case 0:
		return Result{Kind: NotFound, Key: key}
	case 1:
		return Result{Kind: Resolved, Key: key, Chosen: unique[0]}
	default:
		Sort(unique)
		return Result{Kind: NeedsChoice, Key: key, Options: unique}
	}
}

// Sort orders options by folded label, then ID.
func Sort(options []Option) {
	slices.SortStableFunc(options, func(a, b Option) int {
		if c := strings.Compare(stringutil.Fold(a.Label), stringutil.Fold(b.Label)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Render lists options one per line, numbered from 1.
func Render(options []Option) string {
	var b strings.Builder
	for i, o := range options {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, o)
	}
	return b.String()
}

// FromPeople builds options labelled with full name and department.
func FromPeople(people []campus.Person) []Option {
	return sliceutil.Map(people, func(p campus.Person) Option {
		return Option{ID: p.ID, Label: p.FullName(), Detail: p.Department}
	})
}

// FromLocations builds options labelled with the location name and, as detail,
// its building or role.
func FromLocations(locations []campus.Location) []Option {
	return sliceutil.Map(locations, func(l campus.Location) Option {
		detail := l.Building
		if detail == "" {
			detail = string(l.Role)
		}
		if l.Label() != l.ID {
			detail = strings.TrimSpace(detail + " " + l.ID)
		}
		return Option{ID: l.ID, Label: l.Label(), Detail: detail}
	})
}
