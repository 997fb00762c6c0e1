package dialogue

import (
	"github.com/garyellow/campus-navigator/internal/disambig"
	"github.com/garyellow/campus-navigator/internal/nlu"
)

// DirectiveKind tells the transport how to present a reply.
type DirectiveKind int

// Directive kinds
const (
	DirectiveText     DirectiveKind = iota // plain answer
	DirectiveChoice                        // numbered options, the next message picks one
	DirectiveContinue                      // a navigation step, the next message confirms it
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveChoice:
		return "choice"
	case DirectiveContinue:
		return "continue"
	default:
		return "text"
	}
}

// Directive is the controller's answer to one message.
type Directive struct {
	Kind    DirectiveKind
	Text    string
	Options []disambig.Option
	Intent  nlu.Intent
	Mode    Mode
}
