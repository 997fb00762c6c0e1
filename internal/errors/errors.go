// Package errors provides domain-specific error types and sentinel errors
// for the campus assistant.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for dialogue outcomes.
// Use errors.Is() to check these errors in your code.
var (
	// ErrLocationNotFound indicates an origin or destination is not in the campus graph.
	ErrLocationNotFound = errors.New("location not found")

	// ErrNoPathExists indicates the destination cannot be reached from the origin,
	// or the route search was cut short by its deadline.
	ErrNoPathExists = errors.New("no path exists")

	// ErrPersonNotFound indicates no person matches the lookup key.
	ErrPersonNotFound = errors.New("person not found")

	// ErrInvalidChoice indicates a disambiguation reply matched no candidate or several.
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrAmbiguousInput indicates entities could not be assigned unambiguously
	// (e.g. three locations without from/to markers).
	ErrAmbiguousInput = errors.New("ambiguous input")

	// ErrStateMismatch indicates a stored conversation state is inconsistent.
	ErrStateMismatch = errors.New("conversation state mismatch")

	// ErrRateLimitExceeded indicates a session sent too many messages.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates the caller supplied malformed input (empty message, missing session).
	ErrInvalidInput = errors.New("invalid input")
)

// DialogueError attaches the offending value to one of the sentinels above.
// errors.Is matches both the sentinel kind and the underlying cause.
type DialogueError struct {
	Kind    error
	Subject string
	Cause   error
}

func (e *DialogueError) Error() string {
	msg := e.Kind.Error()
	if e.Subject != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Subject)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *DialogueError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// LocationNotFound reports an unknown location ID.
func LocationNotFound(id string) error {
	return &DialogueError{Kind: ErrLocationNotFound, Subject: id}
}

// NoPathExists reports an unreachable destination. cause may carry a context error.
func NoPathExists(origin, destination string, cause error) error {
	return &DialogueError{Kind: ErrNoPathExists, Subject: origin + " -> " + destination, Cause: cause}
}

// PersonNotFound reports a lookup key with no matching person.
func PersonNotFound(name string) error {
	return &DialogueError{Kind: ErrPersonNotFound, Subject: name}
}

// InvalidChoice reports a selection that resolves to zero or several options.
func InvalidChoice(selection string) error {
	return &DialogueError{Kind: ErrInvalidChoice, Subject: selection}
}

// AmbiguousInput reports text whose entities cannot be assigned roles.
func AmbiguousInput(text string) error {
	return &DialogueError{Kind: ErrAmbiguousInput, Subject: text}
}

// StateMismatch reports a stored state that cannot be used.
func StateMismatch(cause error) error {
	return &DialogueError{Kind: ErrStateMismatch, Cause: cause}
}

// IsLocationNotFound checks if error is ErrLocationNotFound.
func IsLocationNotFound(err error) bool { return errors.Is(err, ErrLocationNotFound) }

// IsNoPathExists checks if error is ErrNoPathExists.
func IsNoPathExists(err error) bool { return errors.Is(err, ErrNoPathExists) }

// IsPersonNotFound checks if error is ErrPersonNotFound.
func IsPersonNotFound(err error) bool { return errors.Is(err, ErrPersonNotFound) }

// IsInvalidChoice checks if error is ErrInvalidChoice.
func IsInvalidChoice(err error) bool { return errors.Is(err, ErrInvalidChoice) }

// IsAmbiguousInput checks if error is ErrAmbiguousInput.
func IsAmbiguousInput(err error) bool { return errors.Is(err, ErrAmbiguousInput) }

// IsStateMismatch checks if error is ErrStateMismatch.
func IsStateMismatch(err error) bool { return errors.Is(err, ErrStateMismatch) }

// IsRateLimitExceeded checks if error is ErrRateLimitExceeded.
func IsRateLimitExceeded(err error) bool { return errors.Is(err, ErrRateLimitExceeded) }

// UserMessage turns an error into a polite clarifying prompt.
// A WrappedError's own user message wins over the generic ones.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *WrappedError
	if errors.As(err, &wrapped) && wrapped.UserMessage != "" {
		return wrapped.UserMessage
	}

	subject := ""
	var de *DialogueError
	if errors.As(err, &de) {
		subject = de.Subject
	}

	switch {
	case IsLocationNotFound(err):
		if subject != "" {
			return fmt.Sprintf("I couldn't find a place called %q. Could you check the room code, for example AB1-303?", subject)
		}
		return "I couldn't find that place. Could you check the room code, for example AB1-303?"
	case IsNoPathExists(err):
		return "I couldn't find a route between those two places. Could you try a different starting point?"
	case IsPersonNotFound(err):
		if subject != "" {
			return fmt.Sprintf("I couldn't find anyone named %q. Could you check the spelling?", subject)
		}
		return "I couldn't find that person. Could you check the spelling?"
	case IsInvalidChoice(err):
		return "Sorry, I couldn't tell which one you meant. Please reply with the number of your choice."
	case IsAmbiguousInput(err):
		return "I found several places in your message. Could you say it as \"from X to Y\"?"
	case IsStateMismatch(err):
		return "Sorry, I lost track of our conversation. Let's start over."
	case IsRateLimitExceeded(err):
		return "You're sending messages a little too quickly. Please wait a moment and try again."
	case errors.Is(err, ErrInvalidInput):
		return "I didn't catch that. Could you say it again?"
	default:
		return "Sorry, something went wrong on my side. Please try again."
	}
}
