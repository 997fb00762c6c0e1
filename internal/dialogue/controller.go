package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyellow/campus-navigator/internal/campus"
	"github.com/garyellow/campus-navigator/internal/config"
	"github.com/garyellow/campus-navigator/internal/disambig"
	domerrors "github.com/garyellow/campus-navigator/internal/errors"
	"github.com/garyellow/campus-navigator/internal/logger"
	"github.com/garyellow/campus-navigator/internal/navigation"
	"github.com/garyellow/campus-navigator/internal/nlu"
	"github.com/garyellow/campus-navigator/internal/pathgraph"
)

// Router answers shortest-path queries.
type Router interface {
	ShortestPath(ctx context.Context, origin, destination string) (pathgraph.Path, error)
}

// Directory looks up places and people.
type Directory interface {
	Location(id string) (campus.Location, bool)
	Person(id string) (campus.Person, bool)
	PeopleByFirstName(name string) []campus.Person
}

// Sessions loads a session, lets fn mutate it and saves it, all under the
// session's lock. loadErr reports a stored state that could not be decoded;
// st is then a fresh idle state.
type Sessions interface {
	Update(ctx context.Context, sessionID string, fn func(st *State, loadErr error) error) error
}

// Observer receives dialogue events for metrics.
type Observer interface {
	ObserveIntent(intent nlu.Intent)
	ObserveTransition(from, to Mode)
	ObserveNavigation(outcome string)
}

// Navigation outcomes reported to Observer.
const (
	OutcomeStarted   = "started"
	OutcomeArrived   = "arrived"
	OutcomeNoPath    = "no_path"
	OutcomeCancelled = "cancelled"
	OutcomeReplaced  = "replaced"
)

type noopObserver struct{}

func (noopObserver) ObserveIntent(nlu.Intent)    {}
func (noopObserver) ObserveTransition(_, _ Mode) {}
func (noopObserver) ObserveNavigation(string)    {}

// Controller applies one classified message to a session.
type Controller struct {
	router    Router
	directory Directory
	sessions  Sessions
	affirmer  Affirmer
	observer  Observer
	cfg       config.DialogueConfig
	logger    *logger.Logger
	now       func() time.Time
}

// Option customises a Controller.
type Option func(*Controller)

// WithObserver reports dialogue events to o.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithAffirmer replaces the token-based affirmation policy.
func WithAffirmer(a Affirmer) Option {
	return func(c *Controller) {
		if a != nil {
			c.affirmer = a
		}
	}
}

// NewController wires the collaborators. The affirmation policy defaults to a
// TokenSet over cfg.AffirmTokens.
func NewController(router Router, directory Directory, sessions Sessions, cfg config.DialogueConfig, log *logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		router:    router,
		directory: directory,
		sessions:  sessions,
		affirmer:  NewTokenSet(cfg.AffirmTokens),
		observer:  noopObserver{},
		cfg:       cfg,
		logger:    log.WithModule("dialogue"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle runs one turn for sessionID. Failures are turned into a polite
// reply; Handle never returns an error.
func (c *Controller) Handle(ctx context.Context, sessionID string, intent nlu.Intent, ent nlu.Entities) Directive {
	var d Directive
	err := c.sessions.Update(ctx, sessionID, func(st *State, loadErr error) error {
		d = c.advance(ctx, st, intent, ent, loadErr)
		return nil
	})
	if err != nil {
		c.logger.WithError(err).ErrorContext(ctx, "Session update failed")
		return Directive{Kind: DirectiveText, Text: domerrors.UserMessage(err), Intent: intent, Mode: ModeIdle}
	}
	return d
}

func (c *Controller) advance(ctx context.Context, st *State, intent nlu.Intent, ent nlu.Entities, loadErr error) Directive {
	c.observer.ObserveIntent(intent)

	var prefix string
	if loadErr == nil {
		if err := st.Validate(); err != nil {
			loadErr = err
		}
	}
	if loadErr != nil {
		mismatch := domerrors.StateMismatch(loadErr)
		c.logger.WithError(mismatch).WarnContext(ctx, "Discarding inconsistent session state")
		st.Reset()
		prefix = domerrors.UserMessage(mismatch) + " "
	}

	from := st.Mode
	t := &turn{c: c, ctx: ctx, st: st, intent: intent, ent: ent}
	text := t.dispatch()
	st.UpdatedAt = c.now()
	if from != st.Mode {
		c.observer.ObserveTransition(from, st.Mode)
	}

	d := Directive{Text: prefix + text, Intent: t.intent, Mode: st.Mode}
	switch st.Mode {
	case ModeAwaitingDisambiguation:
		d.Kind = DirectiveChoice
		d.Options = append([]disambig.Option(nil), st.Candidates...)
	case ModeNavigating:
		d.Kind = DirectiveContinue
	default:
		d.Kind = DirectiveText
	}
	return d
}

// turn holds one message being applied to a state.
type turn struct {
	c      *Controller
	ctx    context.Context
	st     *State
	intent nlu.Intent
	ent    nlu.Entities
}

func (t *turn) dispatch() string {
	if t.intent == nlu.IntentCancel {
		return t.cancel()
	}

	switch t.st.Mode {
	case ModeAwaitingDisambiguation:
		return t.choose()
	case ModeNavigating:
		return t.navigating()
	case ModeIdle:
		return t.idle()
	default:
		t.st.Reset()
		return t.idle()
	}
}

func (t *turn) cancel() string {
	mode := t.st.Mode
	dest := t.st.Destination
	if mode == ModeNavigating {
		t.st.LastLocation = t.st.Position()
		t.c.observer.ObserveNavigation(OutcomeCancelled)
	}
	t.st.Reset()

	switch mode {
	case ModeNavigating:
		return fmt.Sprintf("Okay, I've stopped guiding you to %s.", dest.Label())
	case ModeAwaitingDisambiguation:
		return "Okay, never mind. What else can I help you with?"
	default:
		return "Okay. There's nothing to cancel, but I'm here if you need me."
	}
}

func (t *turn) choose() string {
	chosen, err := disambig.ApplyChoice(t.st.Candidates, t.ent.Text)
	if err != nil {
		return domerrors.UserMessage(err) + "\n" + disambig.Render(t.st.Candidates)
	}

	pending := *t.st.Pending
	t.st.Candidates = nil
	t.st.Pending = nil
	t.st.Mode = ModeIdle

	switch pending.Kind {
	case PendingTeacherDetails:
		t.intent = nlu.IntentFindTeacher
		person, ok := t.c.directory.Person(chosen.ID)
		if !ok {
			return domerrors.UserMessage(domerrors.PersonNotFound(chosen.Label))
		}
		return t.details(person)
	case PendingPersonOffice:
		t.intent = nlu.IntentNavigate
		person, ok := t.c.directory.Person(chosen.ID)
		if !ok {
			return domerrors.UserMessage(domerrors.PersonNotFound(chosen.Label))
		}
		return t.routeTo(pending.Origin, person.Office)
	case PendingDestination:
		t.intent = nlu.IntentNavigate
		return t.routeTo(pending.Origin, chosen.ID)
	case PendingOrigin:
		t.intent = nlu.IntentNavigate
		return t.start(chosen.ID, pending.Destination)
	default:
		return domerrors.UserMessage(domerrors.StateMismatch(fmt.Errorf("unknown pending kind %d", pending.Kind)))
	}
}

// affirms is the single "yes" predicate for steps and offers.
func (t *turn) affirms() bool {
	return t.intent != nlu.IntentDeny && (t.intent == nlu.IntentAffirm || t.c.affirmer.Affirms(t.ent.Text))
}

func (t *turn) navigating() string {
	if t.affirms() {
		t.intent = nlu.IntentAffirm
		return t.confirmStep()
	}

	startsNewWork := (t.intent == nlu.IntentNavigate && (t.ent.HasLocations() || t.ent.HasPeople())) ||
		(t.intent == nlu.IntentFindTeacher && (t.ent.HasPeople() || t.ent.PersonQuery != ""))
	if startsNewWork {
		dest := t.st.Destination
		t.st.LastLocation = t.st.Position()
		t.st.Reset()
		t.c.observer.ObserveNavigation(OutcomeReplaced)
		return fmt.Sprintf("Okay, dropping the route to %s. ", dest.Label()) + t.idle()
	}

	step, _ := t.st.CurrentStep()
	prompt := "Next: " + navigation.Describe(step, len(t.st.Steps)) + ". Say 'yes' when you get there, or 'cancel' to stop."
	if t.intent == nlu.IntentDeny {
		return "No problem, take your time. " + prompt
	}
	return fmt.Sprintf("I'm still guiding you to %s. ", t.st.Destination.Label()) + prompt
}

func (t *turn) confirmStep() string {
	step, _ := t.st.CurrentStep()
	t.st.LastLocation = step.Arrival.ID

	if t.st.StepIndex+1 >= len(t.st.Steps) {
		dest := t.st.Destination
		t.st.LastLocation = dest.ID
		t.st.Reset()
		t.c.observer.ObserveNavigation(OutcomeArrived)
		return fmt.Sprintf("You have arrived at your destination, %s!", dest.Label())
	}

	t.st.StepIndex++
	next := t.st.Steps[t.st.StepIndex]
	return "Great! Now, " + navigation.Describe(next, len(t.st.Steps)) + ". Let me know when you've reached."
}

func (t *turn) idle() string {
	if offer := t.st.Offer; offer != nil {
		switch {
		case t.affirms():
			t.st.Offer = nil
			t.intent = nlu.IntentNavigate
			return t.routeTo("", offer.Location)
		case t.intent == nlu.IntentDeny:
			t.st.Offer = nil
			return "Alright. Let me know if you need anything else!"
		case t.intent == nlu.IntentNavigate && !t.ent.HasLocations() && !t.ent.HasPeople():
			// "take me there" refers to the offer; keep it open.
			return fmt.Sprintf("Shall I take you to %s's office? Say 'yes' to start.", offer.Label)
		}
		t.st.Offer = nil
	}

	if dest := t.st.AwaitingOriginFor; dest != "" {
		t.st.AwaitingOriginFor = ""
		if m, ok := t.originReply(); ok {
			t.intent = nlu.IntentNavigate
			return t.routeFromMention(m, dest)
		}
	}

	switch t.intent {
	case nlu.IntentGreet:
		return greetingText
	case nlu.IntentGoodbye:
		return goodbyeText
	case nlu.IntentThanks:
		return thanksText
	case nlu.IntentAbout:
		return aboutText
	case nlu.IntentHelp:
		return helpText
	case nlu.IntentNavigate:
		return t.navigate()
	case nlu.IntentFindTeacher:
		return t.findTeacher()
	case nlu.IntentAffirm:
		return nothingToConfirmText
	case nlu.IntentDeny:
		return "Okay. Let me know if you need anything else!"
	case nlu.IntentUnknown:
		switch {
		case t.ent.HasLocations():
			t.intent = nlu.IntentNavigate
			return t.navigate()
		case t.ent.HasPeople():
			t.intent = nlu.IntentFindTeacher
			return t.findTeacher()
		}
		return fallbackText
	default:
		return fallbackText
	}
}

// originReply picks the answer to "where are you now?".
func (t *turn) originReply() (nlu.Mention, bool) {
	switch t.intent {
	case nlu.IntentUnknown, nlu.IntentNavigate, nlu.IntentAffirm:
	default:
		return nlu.Mention{}, false
	}
	if len(t.ent.Mentions) != 1 || t.ent.Mentions[0].Role == nlu.RoleDestination {
		return nlu.Mention{}, false
	}
	return t.ent.Mentions[0], true
}

func (t *turn) routeFromMention(m nlu.Mention, dest string) string {
	switch {
	case !m.Known():
		t.st.AwaitingOriginFor = dest
		return domerrors.UserMessage(domerrors.LocationNotFound(m.Phrase))
	case m.Ambiguous():
		return t.askLocation(m, Pending{Kind: PendingOrigin, Key: m.Phrase, Destination: dest})
	default:
		return t.start(m.IDs[0], dest)
	}
}

// navigate resolves a navigation request from the message's mentions.
func (t *turn) navigate() string {
	for _, m := range t.ent.Mentions {
		if !m.Known() {
			return domerrors.UserMessage(domerrors.LocationNotFound(m.Phrase))
		}
	}

	origin, dest, err := assignRoles(t.ent)
	if err != nil {
		return domerrors.UserMessage(err)
	}

	if dest == nil {
		switch {
		case t.ent.HasPeople():
			return t.navigateToPerson(origin)
		case origin != nil && !origin.Ambiguous():
			loc, _ := t.c.directory.Location(origin.IDs[0])
			t.st.LastLocation = loc.ID
			return fmt.Sprintf("Got it, you're at %s. Where would you like to go?", loc.Label())
		}
		return askRouteText
	}

	if dest.Ambiguous() {
		if origin != nil && origin.Ambiguous() {
			return domerrors.UserMessage(domerrors.AmbiguousInput(t.ent.Text))
		}
		var originID string
		if origin != nil {
			originID = origin.IDs[0]
		}
		return t.askLocation(*dest, Pending{Kind: PendingDestination, Key: dest.Phrase, Origin: originID})
	}

	if origin == nil {
		return t.routeTo("", dest.IDs[0])
	}
	return t.routeFromMention(*origin, dest.IDs[0])
}

// assignRoles picks the origin and destination mentions. Tagged mentions
// win; untagged ones fill the gaps in order.
func assignRoles(ent nlu.Entities) (origin, dest *nlu.Mention, err error) {
	origins := append(ent.WithRole(nlu.RoleOrigin), ent.WithRole(nlu.RoleCurrent)...)
	dests := ent.WithRole(nlu.RoleDestination)
	untagged := ent.WithRole(nlu.RoleNone)

	if len(origins) > 1 || len(dests) > 1 {
		return nil, nil, domerrors.AmbiguousInput(ent.Text)
	}
	if len(origins) == 1 {
		origin = &origins[0]
	}
	if len(dests) == 1 {
		dest = &dests[0]
	}

	switch {
	case len(untagged) == 0:
	case origin == nil && dest == nil && len(untagged) == 1:
		dest = &untagged[0]
	case origin == nil && dest == nil && len(untagged) == 2:
		origin, dest = &untagged[0], &untagged[1]
	case origin == nil && dest != nil && len(untagged) == 1:
		origin = &untagged[0]
	case origin != nil && dest == nil && len(untagged) == 1:
		dest = &untagged[0]
	default:
		return nil, nil, domerrors.AmbiguousInput(ent.Text)
	}
	return origin, dest, nil
}

func (t *turn) navigateToPerson(origin *nlu.Mention) string {
	if origin != nil && origin.Ambiguous() {
		return domerrors.UserMessage(domerrors.AmbiguousInput(t.ent.Text))
	}
	var originID string
	if origin != nil {
		originID = origin.IDs[0]
	}

	name := t.ent.People[0]
	res := disambig.Resolve(name, disambig.FromPeople(t.c.directory.PeopleByFirstName(name)))
	switch res.Kind {
	case disambig.Resolved:
		person, _ := t.c.directory.Person(res.Chosen.ID)
		return t.routeTo(originID, person.Office)
	case disambig.NeedsChoice:
		t.await(res.Options, Pending{Kind: PendingPersonOffice, Key: name, Origin: originID})
		return fmt.Sprintf("I found more than one %s. Whose office should I take you to?\n%s", name, disambig.Render(res.Options))
	default:
		return domerrors.UserMessage(domerrors.PersonNotFound(name))
	}
}

func (t *turn) askLocation(m nlu.Mention, pending Pending) string {
	locations := make([]campus.Location, 0, len(m.IDs))
	for _, id := range m.IDs {
		if loc, ok := t.c.directory.Location(id); ok {
			locations = append(locations, loc)
		}
	}
	res := disambig.Resolve(m.Phrase, disambig.FromLocations(locations))
	switch res.Kind {
	case disambig.Resolved:
		if pending.Kind == PendingOrigin {
			return t.start(res.Chosen.ID, pending.Destination)
		}
		return t.routeTo(pending.Origin, res.Chosen.ID)
	case disambig.NeedsChoice:
		t.await(res.Options, pending)
		return fmt.Sprintf("Which %q do you mean?\n%s", m.Phrase, disambig.Render(res.Options))
	default:
		return domerrors.UserMessage(domerrors.LocationNotFound(m.Phrase))
	}
}

func (t *turn) await(options []disambig.Option, pending Pending) {
	t.st.Mode = ModeAwaitingDisambiguation
	t.st.Candidates = options
	t.st.Pending = &pending
}

// routeTo starts navigation to dest. An empty origin falls back to the last
// known location, or asks for one.
func (t *turn) routeTo(origin, dest string) string {
	if origin == "" {
		origin = t.st.LastLocation
	}
	if origin == "" {
		loc, ok := t.c.directory.Location(dest)
		if !ok {
			return domerrors.UserMessage(domerrors.LocationNotFound(dest))
		}
		t.st.AwaitingOriginFor = loc.ID
		return fmt.Sprintf("Sure, I can take you to %s. Where are you right now? Tell me a room code or a landmark, like 'I'm at the library'.", loc.Label())
	}
	return t.start(origin, dest)
}

// start queries the route and enters Navigating.
func (t *turn) start(originID, destID string) string {
	origin, ok := t.c.directory.Location(originID)
	if !ok {
		return domerrors.UserMessage(domerrors.LocationNotFound(originID))
	}
	dest, ok := t.c.directory.Location(destID)
	if !ok {
		return domerrors.UserMessage(domerrors.LocationNotFound(destID))
	}

	ctx, cancel := context.WithTimeout(t.ctx, t.c.cfg.PathQueryTimeout)
	defer cancel()

	path, err := t.c.router.ShortestPath(ctx, origin.ID, dest.ID)
	if err != nil {
		t.c.observer.ObserveNavigation(OutcomeNoPath)
		t.c.logger.WithError(err).DebugContext(t.ctx, "No route",
			"origin", origin.ID, "destination", dest.ID)
		return fmt.Sprintf("I'm sorry, I couldn't find a path from %s to %s.", origin.Label(), dest.Label())
	}

	steps := navigation.Plan(path)
	if len(steps) == 0 {
		t.st.LastLocation = dest.ID
		return fmt.Sprintf("You are already at %s.", dest.Label())
	}

	t.st.Reset()
	t.st.Mode = ModeNavigating
	t.st.Origin = origin
	t.st.Destination = dest
	t.st.Steps = steps
	t.st.StepIndex = 0
	t.st.LastLocation = origin.ID
	t.c.observer.ObserveNavigation(OutcomeStarted)

	return fmt.Sprintf("Okay, starting navigation from %s to %s (%s). First, %s. Let me know when you're there.",
		origin.Label(), dest.Label(), distanceText(path), navigation.Describe(steps[0], len(steps)))
}

func distanceText(p pathgraph.Path) string {
	summary := navigation.Summary(p)
	if i := strings.Index(summary, ": "); i >= 0 {
		return strings.TrimSuffix(summary[i+2:], ".")
	}
	return summary
}

func (t *turn) findTeacher() string {
	var name string
	switch {
	case t.ent.HasPeople():
		name = t.ent.People[0]
	case t.ent.PersonQuery != "":
		return domerrors.UserMessage(domerrors.PersonNotFound(t.ent.PersonQuery))
	default:
		return askTeacherText
	}

	res := disambig.Resolve(name, disambig.FromPeople(t.c.directory.PeopleByFirstName(name)))
	switch res.Kind {
	case disambig.Resolved:
		person, ok := t.c.directory.Person(res.Chosen.ID)
		if !ok {
			return domerrors.UserMessage(domerrors.PersonNotFound(name))
		}
		return t.details(person)
	case disambig.NeedsChoice:
		t.await(res.Options, Pending{Kind: PendingTeacherDetails, Key: name})
		return fmt.Sprintf("I found multiple teachers named %s. Please choose one:\n%s", name, disambig.Render(res.Options))
	default:
		return domerrors.UserMessage(domerrors.PersonNotFound(name))
	}
}

// details renders a person's contact card and offers a route to the office.
func (t *turn) details(p campus.Person) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are the details for %s:\n", p.FullName())
	fmt.Fprintf(&b, "Email: %s\n", p.Email)
	fmt.Fprintf(&b, "Phone: %s\n", p.Phone)

	office, ok := t.c.directory.Location(p.Office)
	if !ok {
		fmt.Fprintf(&b, "Department: %s.", p.Department)
		return b.String()
	}

	fmt.Fprintf(&b, "Office: %s in %s\n", office.Label(), office.Building)
	fmt.Fprintf(&b, "Department: %s.\n\n", p.Department)
	b.WriteString("Would you like me to navigate you to their office?")
	t.st.Offer = &Offer{PersonID: p.ID, Location: office.ID, Label: p.FullName()}
	return b.String()
}
