// Package assistant is the boundary every transport talks to: it turns one
// raw user message into one reply, running rate limiting, intent
// classification, entity extraction and the dialogue controller in order.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/garyellow/campus-navigator/internal/ctxutil"
	"github.com/garyellow/campus-navigator/internal/dialogue"
	"github.com/garyellow/campus-navigator/internal/disambig"
	domerrors "github.com/garyellow/campus-navigator/internal/errors"
	"github.com/garyellow/campus-navigator/internal/logger"
	"github.com/garyellow/campus-navigator/internal/metrics"
	"github.com/garyellow/campus-navigator/internal/nlu"
	"github.com/garyellow/campus-navigator/internal/ratelimit"
	"github.com/garyellow/campus-navigator/internal/sliceutil"
	"github.com/garyellow/campus-navigator/internal/stringutil"
)

// Message statuses reported to metrics.
const (
	StatusOK          = "ok"
	StatusEmpty       = "empty"
	StatusRateLimited = "rate_limited"
)

const emptyMessageText = "I didn't catch that. Try something like \"How do I get from AB1-303 to AB2-112?\" or \"Who is Sneha?\""

// Classifier maps normalized text to an intent.
type Classifier interface {
	Classify(text string) nlu.Intent
}

// Extractor finds locations and people in a message.
type Extractor interface {
	Extract(text string) nlu.Entities
}

// Handler runs one dialogue turn for a session.
type Handler interface {
	Handle(ctx context.Context, sessionID string, intent nlu.Intent, ent nlu.Entities) dialogue.Directive
}

// Resetter forgets a session.
type Resetter interface {
	Reset(ctx context.Context, sessionID string) error
}

// Reply is what a transport renders back to the user.
type Reply struct {
	Text                 string   `json:"text"`
	Intent               string   `json:"intent"`
	Mode                 string   `json:"mode"`
	AwaitingChoice       bool     `json:"awaiting_choice"`
	ChoiceOptions        []string `json:"choice_options,omitempty"`
	AwaitingConfirmation bool     `json:"awaiting_confirmation"`
}

// Config holds the collaborators of an Assistant.
type Config struct {
	Classifier Classifier
	Extractor  Extractor
	Handler    Handler
	Sessions   Resetter                // optional; enables Reset
	Limiter    *ratelimit.KeyedLimiter // optional per-session limiter
	Metrics    *metrics.Metrics        // optional
	Logger     *logger.Logger

	MaxMessageLength int
}

// Assistant answers chat messages.
type Assistant struct {
	classifier Classifier
	extractor  Extractor
	handler    Handler
	sessions   Resetter
	limiter    *ratelimit.KeyedLimiter
	metrics    *metrics.Metrics
	logger     *logger.Logger
	maxLen     int
}

// New creates an Assistant from cfg.
func New(cfg Config) *Assistant {
	return &Assistant{
		classifier: cfg.Classifier,
		extractor:  cfg.Extractor,
		handler:    cfg.Handler,
		sessions:   cfg.Sessions,
		limiter:    cfg.Limiter,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.WithModule("assistant"),
		maxLen:     cfg.MaxMessageLength,
	}
}

// Reply handles one message of sessionID. It never fails: every problem
// becomes a reply the user can act on.
func (a *Assistant) Reply(ctx context.Context, sessionID, rawText string) Reply {
	start := time.Now()
	ctx = ctxutil.WithSessionID(ctx, sessionID)
	channel := ctxutil.GetChannel(ctx)
	if channel == "" {
		channel = "unknown"
	}

	text := strings.Join(strings.Fields(rawText), " ")
	if text == "" {
		a.record(channel, StatusEmpty, start)
		return Reply{Text: emptyMessageText, Intent: nlu.IntentUnknown.String(), Mode: dialogue.ModeIdle.String()}
	}

	if a.limiter != nil && !a.limiter.Allow(sessionID) {
		a.logger.WarnContext(ctx, "Session rate limit exceeded")
		a.record(channel, StatusRateLimited, start)
		return Reply{
			Text:   domerrors.UserMessage(domerrors.ErrRateLimitExceeded),
			Intent: nlu.IntentUnknown.String(),
			Mode:   dialogue.ModeIdle.String(),
		}
	}

	if a.maxLen > 0 {
		text = stringutil.TruncateRunes(text, a.maxLen)
	}

	intent := a.classifier.Classify(text)
	ent := a.extractor.Extract(text)
	a.logger.DebugContext(ctx, "Message classified",
		"intent", intent.String(),
		"locations", len(ent.Mentions),
		"people", len(ent.People),
	)

	d := a.handler.Handle(ctx, sessionID, intent, ent)
	a.record(channel, StatusOK, start)
	return fromDirective(d)
}

// Reset forgets everything about sessionID.
func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	if a.sessions == nil {
		return nil
	}
	return a.sessions.Reset(ctx, sessionID)
}

func (a *Assistant) record(channel, status string, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordMessage(channel, status, time.Since(start).Seconds())
	}
}

func fromDirective(d dialogue.Directive) Reply {
	r := Reply{
		Text:   d.Text,
		Intent: d.Intent.String(),
		Mode:   d.Mode.String(),
	}
	switch d.Kind {
	case dialogue.DirectiveChoice:
		r.AwaitingChoice = true
		r.ChoiceOptions = sliceutil.Map(d.Options, func(o disambig.Option) string { return o.String() })
	case dialogue.DirectiveContinue:
		r.AwaitingConfirmation = true
	}
	return r
}
