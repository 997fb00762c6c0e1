package dialogue

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/campus-navigator/internal/campus"
	"github.com/garyellow/campus-navigator/internal/config"
	domerrors "github.com/garyellow/campus-navigator/internal/errors"
	"github.com/garyellow/campus-navigator/internal/logger"
	"github.com/garyellow/campus-navigator/internal/nlu"
	"github.com/garyellow/campus-navigator/internal/pathgraph"
)

type memSessions struct {
	mu      sync.Mutex
	states  map[string]*State
	loadErr error
}

func newMemSessions() *memSessions {
	return &memSessions{states: make(map[string]*State)}
}

func (m *memSessions) Update(_ context.Context, id string, fn func(st *State, loadErr error) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.states[id].Clone()
	loadErr := m.loadErr
	m.loadErr = nil
	if st == nil || loadErr != nil {
		st = NewState()
	}
	if err := fn(st, loadErr); err != nil {
		return err
	}
	m.states[id] = st
	return nil
}

type recorder struct {
	mu          sync.Mutex
	outcomes    []string
	transitions []string
}

func (r *recorder) ObserveIntent(nlu.Intent) {}

func (r *recorder) ObserveTransition(from, to Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, from.String()+">"+to.String())
}

func (r *recorder) ObserveNavigation(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

type harness struct {
	t          *testing.T
	ctrl       *Controller
	sessions   *memSessions
	obs        *recorder
	classifier *nlu.Classifier
	extractor  *nlu.Extractor
}

func newHarness(t *testing.T, d campus.Dataset, opts ...func(*config.DialogueConfig)) *harness {
	t.Helper()
	cat, err := campus.NewCatalog(d)
	require.NoError(t, err)
	g, err := pathgraph.FromCatalog(cat)
	require.NoError(t, err)
	return newHarnessWithRouter(t, cat, g, opts...)
}

func newHarnessWithRouter(t *testing.T, cat *campus.Catalog, router Router, opts ...func(*config.DialogueConfig)) *harness {
	t.Helper()
	cfg := config.DefaultDialogueConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	h := &harness{
		t:        t,
		sessions: newMemSessions(),
		obs:      &recorder{},
		classifier: nlu.NewClassifier(nlu.ClassifierOptions{
			AffirmTokens: cfg.AffirmTokens,
			CancelTokens: cfg.CancelTokens,
			MinScore:     cfg.ClassifierMinScore,
		}),
		extractor: nlu.NewExtractor(cat),
	}
	log := logger.NewWithWriter("error", io.Discard)
	h.ctrl = NewController(router, cat, h.sessions, cfg, log, WithObserver(h.obs))
	return h
}

func (h *harness) say(text string) Directive {
	h.t.Helper()
	return h.ctrl.Handle(context.Background(), "s1", h.classifier.Classify(text), h.extractor.Extract(text))
}

func (h *harness) state() *State {
	h.sessions.mu.Lock()
	defer h.sessions.mu.Unlock()
	return h.sessions.states["s1"].Clone()
}

func TestNavigation_WalkthroughToArrival(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	d := h.say("navigate from AB1-303 to AB2-112")
	assert.Equal(t, DirectiveContinue, d.Kind)
	assert.Equal(t, ModeNavigating, d.Mode)
	assert.Equal(t, nlu.IntentNavigate, d.Intent)
	assert.Contains(t, d.Text, "starting navigation from AB1_303 to AB2_112")
	assert.Contains(t, d.Text, "continue straight to reach AB1_310 (step 1 of 6)")

	st := h.state()
	require.Len(t, st.Steps, 6)
	wantArrivals := []string{"AB1_310", "AB1_LIFT", "AB1_EXIT", "CROSSROAD_1", "AB2_ENTRANCE", "AB2_112"}
	for i, step := range st.Steps {
		assert.Equal(t, wantArrivals[i], step.Arrival.ID)
	}

	for i := 1; i < 6; i++ {
		d = h.say("yes")
		assert.Equal(t, DirectiveContinue, d.Kind, "step %d", i)
		assert.Contains(t, d.Text, "Great! Now,")
		assert.Equal(t, i, h.state().StepIndex)
		assert.Equal(t, wantArrivals[i-1], h.state().LastLocation)
	}
	assert.Contains(t, d.Text, "to reach AB2_112 (step 6 of 6)")

	d = h.say("reached")
	assert.Equal(t, DirectiveText, d.Kind)
	assert.Equal(t, ModeIdle, d.Mode)
	assert.Contains(t, d.Text, "arrived")

	st = h.state()
	assert.Equal(t, ModeIdle, st.Mode)
	assert.Empty(t, st.Steps)
	assert.Equal(t, "AB2_112", st.LastLocation)

	assert.Equal(t, []string{OutcomeStarted, OutcomeArrived}, h.obs.outcomes)
	assert.Equal(t, []string{"idle>navigating", "navigating>idle"}, h.obs.transitions)
}

func TestNavigation_FinalAffirmationIsIdempotent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	h.say("from AB1-303 to AB1-310")
	d := h.say("yes")
	require.Equal(t, ModeIdle, d.Mode)
	before := h.state()

	d = h.say("yes")
	assert.Equal(t, DirectiveText, d.Kind)
	assert.Equal(t, nothingToConfirmText, d.Text)

	after := h.state()
	assert.Equal(t, before.Mode, after.Mode)
	assert.Equal(t, before.LastLocation, after.LastLocation)
	assert.Empty(t, after.Steps)
}

func TestNavigation_Unreachable(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	d := h.say("navigate from AB1-303 to the parking lot")
	assert.Equal(t, DirectiveText, d.Kind)
	assert.Equal(t, ModeIdle, d.Mode)
	assert.Contains(t, d.Text, "couldn't find a path from AB1_303 to Parking Lot")
	assert.Equal(t, []string{OutcomeNoPath}, h.obs.outcomes)
}

func TestNavigation_AlreadyThere(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	d := h.say("from canteen to the cafeteria")
	assert.Equal(t, DirectiveText, d.Kind)
	assert.Equal(t, "You are already at Canteen.", d.Text)
	assert.Equal(t, "CANTEEN", h.state().LastLocation)
}

func TestNavigation_UnknownLocation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	d := h.say("take me to AB9-101")
	assert.Equal(t, ModeIdle, d.Mode)
	assert.Contains(t, d.Text, "AB9_101")
}

func TestNavigation_TooManyPlaces(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	d := h.say("navigate canteen library crossroad")
	assert.Equal(t, domerrors.UserMessage(domerrors.AmbiguousInput("")), d.Text)
	assert.Equal(t, ModeIdle, d.Mode)
}

func TestNavigation_MissingOriginAsksThenResumes(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	d := h.say("how do I get to the canteen?")
	assert.Equal(t, DirectiveText, d.Kind)
	assert.Contains(t, d.Text, "Where are you right now?")
	assert.Equal(t, "CANTEEN", h.state().AwaitingOriginFor)

	d = h.say("I'm at the library")
	assert.Equal(t, DirectiveContinue, d.Kind)
	st := h.state()
	assert.Equal(t, "LIBRARY_ENTRANCE", st.Origin.ID)
	assert.Equal(t, "CANTEEN", st.Destination.ID)
	assert.Empty(t, st.AwaitingOriginFor)
}

func TestNavigation_UsesLastLocation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	h.say("from AB1-303 to AB1-310")
	h.say("yes")
	require.Equal(t, "AB1_310", h.state().LastLocation)

	d := h.say("take me to the canteen")
	assert.Equal(t, DirectiveContinue, d.Kind)
	assert.Equal(t, "AB1_310", h.state().Origin.ID)
}

func TestNavigation_RepromptAndCancel(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	h.say("navigate from AB1-303 to AB2-112")
	h.say("yes")

	d := h.say("what's the weather like")
	assert.Equal(t, DirectiveContinue, d.Kind)
	assert.Contains(t, d.Text, "I'm still guiding you to AB2_112")
	assert.Contains(t, d.Text, "(step 2 of 6)")
	assert.Equal(t, 1, h.state().StepIndex)

	d = h.say("not yet")
	assert.Contains(t, d.Text, "take your time")
	assert.Equal(t, 1, h.state().StepIndex)

	d = h.say("cancel")
	assert.Equal(t, DirectiveText, d.Kind)
	assert.Contains(t, d.Text, "stopped guiding you to AB2_112")
	st := h.state()
	assert.Equal(t, ModeIdle, st.Mode)
	assert.Equal(t, "AB1_310", st.LastLocation)
}

func TestNavigation_NewRouteReplacesActive(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	h.say("navigate from AB1-303 to AB2-112")
	h.say("yes")

	d := h.say("take me to the library")
	assert.Contains(t, d.Text, "dropping the route to AB2_112")
	assert.Equal(t, DirectiveContinue, d.Kind)
	st := h.state()
	assert.Equal(t, "AB1_310", st.Origin.ID)
	assert.Equal(t, "LIBRARY_ENTRANCE", st.Destination.ID)
	assert.Equal(t, 0, st.StepIndex)
}

func TestNavigation_PathQueryTimeout(t *testing.T) {
	t.Parallel()
	cat, err := campus.NewCatalog(campus.SampleDataset())
	require.NoError(t, err)
	h := newHarnessWithRouter(t, cat, blockingRouter{}, func(c *config.DialogueConfig) {
		c.PathQueryTimeout = 20 * time.Millisecond
	})

	d := h.say("navigate from AB1-303 to AB2-112")
	assert.Equal(t, ModeIdle, d.Mode)
	assert.Contains(t, d.Text, "couldn't find a path")
}

type blockingRouter struct{}

func (blockingRouter) ShortestPath(ctx context.Context, origin, destination string) (pathgraph.Path, error) {
	<-ctx.Done()
	return pathgraph.Path{}, domerrors.NoPathExists(origin, destination, ctx.Err())
}

func TestTeacher_DetailsAndOffer(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	d := h.say("who is Aayush?")
	assert.Equal(t, DirectiveText, d.Kind)
	assert.Equal(t, nlu.IntentFindTeacher, d.Intent)
	assert.Contains(t, d.Text, "Here are the details for Aayush Sharma")
	assert.Contains(t, d.Text, "Email: aayush.sharma@university.edu")
	assert.Contains(t, d.Text, "Office: AB1_303 in AB1")
	assert.Contains(t, d.Text, "Would you like me to navigate you to their office?")
	require.NotNil(t, h.state().Offer)

	d = h.say("yes")
	assert.Contains(t, d.Text, "Where are you right now?")
	assert.Nil(t, h.state().Offer)
	assert.Equal(t, "AB1_303", h.state().AwaitingOriginFor)

	d = h.say("I'm at the library")
	assert.Equal(t, DirectiveContinue, d.Kind)
	assert.Equal(t, "AB1_303", h.state().Destination.ID)
}

func TestTeacher_OfferAcceptedInOwnWords(t *testing.T) {
	t.Parallel()

	for _, reply := range []string{"yes", "yes, take me there", "sure, take me there", "ok show me the way", "yes please guide me"} {
		t.Run(reply, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, campus.SampleDataset())

			h.say("I'm at the canteen")
			require.Equal(t, "CANTEEN", h.state().LastLocation)
			h.say("who is aayush")
			require.NotNil(t, h.state().Offer)

			d := h.say(reply)
			assert.Equal(t, DirectiveContinue, d.Kind)
			st := h.state()
			assert.Equal(t, ModeNavigating, st.Mode)
			assert.Equal(t, "AB1_303", st.Destination.ID)
			assert.Nil(t, st.Offer)
		})
	}
}

func TestTeacher_OfferKeptOnBareNavigate(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	h.say("who is aayush")
	require.NotNil(t, h.state().Offer)

	d := h.ctrl.Handle(context.Background(), "s1", nlu.IntentNavigate, h.extractor.Extract("take me there"))
	assert.Contains(t, d.Text, "Shall I take you to Aayush Sharma's office?")
	require.NotNil(t, h.state().Offer)

	d = h.say("yes")
	assert.Contains(t, d.Text, "Where are you right now?")
	assert.Nil(t, h.state().Offer)
}

func TestTeacher_OfferDeclined(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	h.say("who is Aarav")
	d := h.say("no")
	assert.Equal(t, "Alright. Let me know if you need anything else!", d.Text)
	assert.Nil(t, h.state().Offer)
}

func TestTeacher_Disambiguation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	d := h.say("who is sneha")
	require.Equal(t, DirectiveChoice, d.Kind)
	assert.Equal(t, ModeAwaitingDisambiguation, d.Mode)
	require.Len(t, d.Options, 2)
	assert.Equal(t, "Sneha Kapoor", d.Options[0].Label)
	assert.Equal(t, "Sneha Verma", d.Options[1].Label)
	assert.Contains(t, d.Text, "1. Sneha Kapoor (Physics)\n2. Sneha Verma (Electronics)")

	d = h.say("sneha")
	assert.Equal(t, DirectiveChoice, d.Kind, "a name shared by both options stays ambiguous")
	assert.Equal(t, ModeAwaitingDisambiguation, h.state().Mode)

	d = h.say("2")
	assert.Equal(t, DirectiveText, d.Kind)
	assert.Equal(t, ModeIdle, d.Mode)
	assert.Contains(t, d.Text, "Here are the details for Sneha Verma")
	st := h.state()
	require.NotNil(t, st.Offer)
	assert.Equal(t, "AB2_112", st.Offer.Location)
	assert.Empty(t, st.Candidates)
	assert.Nil(t, st.Pending)
}

func TestTeacher_NavigateToOffice(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	d := h.say("take me to Sneha from the canteen")
	require.Equal(t, DirectiveChoice, d.Kind)
	assert.Contains(t, d.Text, "Whose office")

	d = h.say("Kapoor")
	assert.Equal(t, DirectiveContinue, d.Kind)
	st := h.state()
	assert.Equal(t, "CANTEEN", st.Origin.ID)
	assert.Equal(t, "AB1_310", st.Destination.ID)
}

func TestTeacher_Unknown(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	d := h.say("who is professor Rahul")
	assert.Contains(t, d.Text, `"Rahul"`)
	assert.Equal(t, ModeIdle, d.Mode)
}

func sharedLiftDataset() campus.Dataset {
	d := campus.SampleDataset()
	for i, loc := range d.Locations {
		if loc.ID == "AB1_LIFT" || loc.ID == "AB2_LIFT" {
			d.Locations[i].Aliases = append(d.Locations[i].Aliases, "lift")
		}
	}
	return d
}

func TestLocationDisambiguation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, sharedLiftDataset())

	d := h.say("navigate from canteen to the lift")
	require.Equal(t, DirectiveChoice, d.Kind)
	require.Len(t, d.Options, 2)
	assert.Equal(t, "AB1_LIFT", d.Options[0].ID)
	assert.Equal(t, "AB2_LIFT", d.Options[1].ID)

	d = h.say("2")
	assert.Equal(t, DirectiveContinue, d.Kind)
	st := h.state()
	assert.Equal(t, "CANTEEN", st.Origin.ID)
	assert.Equal(t, "AB2_LIFT", st.Destination.ID)
}

func TestCancelDuringDisambiguation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	h.say("who is sneha")
	d := h.say("never mind")
	assert.Equal(t, DirectiveText, d.Kind)
	st := h.state()
	assert.Equal(t, ModeIdle, st.Mode)
	assert.Empty(t, st.Candidates)
}

func TestScriptedReplies(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())

	assert.Equal(t, greetingText, h.say("hello").Text)
	assert.Equal(t, thanksText, h.say("thanks").Text)
	assert.Equal(t, goodbyeText, h.say("bye").Text)
	assert.Equal(t, aboutText, h.say("who are you?").Text)
	assert.Equal(t, helpText, h.say("help").Text)
	assert.Equal(t, fallbackText, h.say("xyzzy").Text)
	assert.Equal(t, askTeacherText, h.say("teacher").Text)
}

func TestStateMismatchResets(t *testing.T) {
	t.Parallel()
	h := newHarness(t, campus.SampleDataset())
	h.sessions.loadErr = errors.New("decode: unexpected EOF")

	d := h.say("hello")
	assert.Equal(t, domerrors.UserMessage(domerrors.StateMismatch(nil))+" "+greetingText, d.Text)
	assert.Equal(t, ModeIdle, h.state().Mode)
}

func TestInvalidStateResets(t *testing.T) {
	t.Parallel()
	cat, err := campus.NewCatalog(campus.SampleDataset())
	require.NoError(t, err)
	g, err := pathgraph.FromCatalog(cat)
	require.NoError(t, err)
	ctrl := NewController(g, cat, newMemSessions(), config.DefaultDialogueConfig(), logger.NewWithWriter("error", io.Discard))

	st := &State{Mode: ModeNavigating, StepIndex: 3}
	d := ctrl.advance(context.Background(), st, nlu.IntentAffirm, nlu.Entities{Text: "yes"}, nil)
	assert.Contains(t, d.Text, "lost track")
	assert.Equal(t, ModeIdle, st.Mode)
}
