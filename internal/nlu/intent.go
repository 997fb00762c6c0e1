// Package nlu turns raw chat text into an intent label and the campus
// entities it mentions.
package nlu

import "fmt"

// Intent is the classified goal of a message. The set is closed; dispatch
// code switches over it exhaustively.
type Intent int

// Intents
const (
	IntentUnknown Intent = iota
	IntentGreet
	IntentGoodbye
	IntentThanks
	IntentAbout
	IntentHelp
	IntentNavigate
	IntentFindTeacher
	IntentAffirm
	IntentDeny
	IntentCancel
)

var intentNames = [...]string{
	IntentUnknown:     "unknown",
	IntentGreet:       "greet",
	IntentGoodbye:     "goodbye",
	IntentThanks:      "thanks",
	IntentAbout:       "about",
	IntentHelp:        "help",
	IntentNavigate:    "navigate",
	IntentFindTeacher: "find_teacher",
	IntentAffirm:      "affirm",
	IntentDeny:        "deny",
	IntentCancel:      "cancel",
}

func (i Intent) String() string {
	if i >= 0 && int(i) < len(intentNames) {
		return intentNames[i]
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

// Intents lists every intent in declaration order.
func Intents() []Intent {
	out := make([]Intent, len(intentNames))
	for i := range intentNames {
		out[i] = Intent(i)
	}
	return out
}
