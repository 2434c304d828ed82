// Package wizard is the three-step lead capture flow: identity, birth
// details, then a verified location, followed by submission. A Session
// owns one person's form and is driven by a UI adapter.
package wizard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/amp-labs/effort-economics/calc"
	"github.com/amp-labs/effort-economics/debounce"
	"github.com/amp-labs/effort-economics/geocode"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/amp-labs/effort-economics/resultstore"
	"github.com/amp-labs/effort-economics/statemachine"
	"github.com/amp-labs/effort-economics/validators"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

const (
	DefaultErrorDismissAfter = 6 * time.Second
	DefaultSubmitTimeout     = 15 * time.Second
)

// Geocoder is the part of *geocode.Client a session uses.
type Geocoder interface {
	Suggest(ctx context.Context, postal string) (geocode.Suggestion, bool)
	Verify(ctx context.Context, country, postal, city string) (geocode.Result, error)
}

// Calculator is the part of *calc.Client a session uses.
type Calculator interface {
	Calculate(ctx context.Context, payload calc.Payload) (*calc.Response, error)
}

// Deps are the collaborators of a session.
type Deps struct {
	Geocoder   Geocoder
	Calculator Calculator
	Store      resultstore.Store
}

type settings struct {
	id            string
	now           validators.Clock
	dismissAfter  time.Duration
	submitTimeout time.Duration
	debounceWait  time.Duration
	debounceClock debounce.Clock
}

// Option configures a Session.
type Option func(*settings)

// WithID fixes the session id instead of generating one.
func WithID(id string) Option {
	return func(s *settings) {
		s.id = id
	}
}

// WithClock replaces time.Now for date checks and error expiry.
func WithClock(now validators.Clock) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithErrorDismissAfter sets how long inline errors stay visible.
func WithErrorDismissAfter(d time.Duration) Option {
	return func(s *settings) {
		s.dismissAfter = d
	}
}

// WithSubmitTimeout bounds the calculation call.
func WithSubmitTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.submitTimeout = d
	}
}

// WithSuggestDebounce sets the postal code quiet period and, when clock is
// non-nil, the clock driving it.
func WithSuggestDebounce(wait time.Duration, clock debounce.Clock) Option {
	return func(s *settings) {
		s.debounceWait = wait
		s.debounceClock = clock
	}
}

// Session is one person's pass through the wizard. All methods are safe
// for concurrent use; network calls run without holding the lock.
type Session struct {
	id            string
	engine        *statemachine.Engine
	deps          Deps
	now           validators.Clock
	dismissAfter  time.Duration
	submitTimeout time.Duration
	suggest       *debounce.Debouncer
	lastActive    atomic.Time

	mut         sync.Mutex
	sm          *statemachine.Context
	form        FormState
	locationRev uint64
	verifying   bool
	verifyRev   uint64
	submitting  bool
	preview     *Preview
	inline      *InlineError
	resultID    string
	phoneFP     string
}

// New starts a session on step 1.
func New(deps Deps, opts ...Option) *Session {
	cfg := settings{
		now:           time.Now,
		dismissAfter:  DefaultErrorDismissAfter,
		submitTimeout: DefaultSubmitTimeout,
		debounceWait:  debounce.DefaultWait,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	debounceOpts := []debounce.Option{}
	if cfg.debounceClock != nil {
		debounceOpts = append(debounceOpts, debounce.WithClock(cfg.debounceClock))
	}

	engine := flow.Get()

	s := &Session{
		id:            cfg.id,
		engine:        engine,
		deps:          deps,
		now:           cfg.now,
		dismissAfter:  cfg.dismissAfter,
		submitTimeout: cfg.submitTimeout,
		suggest:       debounce.New(cfg.debounceWait, debounceOpts...),
		sm:            engine.NewContext(cfg.id),
		form:          newFormState(),
	}

	s.touch()

	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// LastActive returns the time of the last call into the session.
func (s *Session) LastActive() time.Time {
	return s.lastActive.Load()
}

// Close cancels any pending suggestion lookup.
func (s *Session) Close() {
	s.suggest.Stop()
}

func (s *Session) touch() {
	s.lastActive.Store(s.now())
}

func (s *Session) logContext(ctx context.Context) context.Context {
	ctx = logger.WithSessionId(ctx, s.id)

	if s.phoneFP != "" {
		ctx = logger.With(ctx, "phone_fp", s.phoneFP)
	}

	return ctx
}

// fail records an inline error for user input problems and returns err.
func (s *Session) fail(step Step, err error, message string) error {
	if message != "" {
		s.inline = &InlineError{Step: step, Message: message, At: s.now()}
	}

	return err
}

// SubmitIdentity validates step 1 and moves to step 2. Consent is checked
// before the phone number.
func (s *Session) SubmitIdentity(ctx context.Context, input validators.IdentityInput) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	s.touch()
	ctx = s.logContext(ctx)

	input.Phone = strings.TrimSpace(input.Phone)

	if err := stage(s.engine, s.sm, StateBirth, dataIdentity, input); err != nil {
		return err
	}

	if err := s.engine.Advance(ctx, s.sm, StateBirth); err != nil {
		return s.fail(StepIdentity, err, validators.Message(err))
	}

	s.form.PhoneNumber = input.FullPhone()
	s.form.Consent = input.Consent
	s.phoneFP = phoneFingerprint(s.form.PhoneNumber)

	logger.Get(s.logContext(ctx)).Info("identity captured")

	return nil
}

// BlurBirthTime returns the auto-completed birth time the field shows
// after losing focus.
func (s *Session) BlurBirthTime(raw string) string {
	s.touch()

	return validators.AutoCompleteTime(raw)
}

// SubmitBirth validates step 2 and moves to step 3. The time is
// auto-completed before checking.
func (s *Session) SubmitBirth(ctx context.Context, input validators.BirthInput) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	s.touch()
	ctx = validators.WithClock(s.logContext(ctx), s.now)

	if err := stage(s.engine, s.sm, StateLocation, dataBirth, input); err != nil {
		return err
	}

	if err := s.engine.Advance(ctx, s.sm, StateLocation); err != nil {
		return s.fail(StepBirth, err, validators.Message(err))
	}

	date, birthTime, err := input.Normalize(s.now())
	if err != nil {
		// Unreachable: the guard already accepted the same input.
		return err
	}

	s.form.BirthDate = date
	s.form.BirthTime = birthTime

	return nil
}

// Reset starts over on step 1 with a fresh form.
func (s *Session) Reset(ctx context.Context) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	if s.submitting {
		return ErrSubmissionInFlight
	}

	s.touch()
	s.suggest.Cancel()
	s.engine.Reset(s.logContext(ctx), s.sm)

	s.form = newFormState()
	s.locationRev++
	s.preview = nil
	s.inline = nil
	s.resultID = ""
	s.phoneFP = ""

	return nil
}

// View returns a snapshot of the session. Inline errors older than the
// dismiss delay, or belonging to another step, are left out.
func (s *Session) View() View {
	s.mut.Lock()
	defer s.mut.Unlock()

	state := s.sm.State()
	step := stepOf(state)

	view := View{
		SessionID: s.id,
		Step:      step,
		State:     state,
		Form:      s.form,
		Loading:   s.submitting,
		ResultID:  s.resultID,
	}

	switch {
	case s.verifyInFlight():
		view.Verify = Control{Label: LabelVerifying, Disabled: true}
	case s.form.LocationVerified:
		view.Verify = Control{Label: LabelVerified, Disabled: true}
	default:
		view.Verify = Control{Label: LabelVerify}
	}

	view.SubmitEnabled = state == StateLocation && s.form.LocationVerified && !s.submitting

	if s.form.LocationVerified && s.preview != nil {
		p := *s.preview
		view.Preview = &p
	}

	if s.inline != nil && s.inline.Step == step && s.now().Sub(s.inline.At) < s.dismissAfter {
		e := *s.inline
		view.Error = &e
	}

	return view
}

// ResultID returns the stored result id once submitted.
func (s *Session) ResultID() (string, bool) {
	s.mut.Lock()
	defer s.mut.Unlock()

	return s.resultID, s.resultID != ""
}
