package wizard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amp-labs/effort-economics/calc"
	"github.com/amp-labs/effort-economics/debounce"
	"github.com/amp-labs/effort-economics/geocode"
	"github.com/amp-labs/effort-economics/report"
	"github.com/amp-labs/effort-economics/resultstore"
	"github.com/amp-labs/effort-economics/statemachine"
	"github.com/amp-labs/effort-economics/validators"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeGeocoder struct {
	mut         sync.Mutex
	suggestions map[string]geocode.Suggestion
	result      geocode.Result
	err         error
	verifyCalls int
	suggested   []string
	// gate, when set, blocks Verify until closed.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeGeocoder) Suggest(_ context.Context, postal string) (geocode.Suggestion, bool) {
	f.mut.Lock()
	defer f.mut.Unlock()

	f.suggested = append(f.suggested, postal)
	s, ok := f.suggestions[postal]

	return s, ok
}

func (f *fakeGeocoder) Verify(_ context.Context, _, _, _ string) (geocode.Result, error) {
	f.mut.Lock()
	f.verifyCalls++
	gate, entered := f.gate, f.entered
	f.mut.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}

	if gate != nil {
		<-gate
	}

	return f.result, f.err
}

type fakeCalculator struct {
	mut      sync.Mutex
	payloads []calc.Payload
	resp     *calc.Response
	err      error
}

func (f *fakeCalculator) Calculate(_ context.Context, payload calc.Payload) (*calc.Response, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	f.payloads = append(f.payloads, payload)

	return f.resp, f.err
}

type testClock struct {
	mut sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mut.Lock()
	defer c.mut.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mut.Lock()
	defer c.mut.Unlock()

	c.now = c.now.Add(d)
}

type fixture struct {
	session *Session
	geo     *fakeGeocoder
	calc    *fakeCalculator
	store   *resultstore.Memory
	clock   *testClock
	timers  *debounce.ManualClock
}

func bengaluru() geocode.Result {
	return geocode.Result{
		Latitude:    12.97,
		Longitude:   77.59,
		DisplayName: "Bengaluru, Karnataka, India",
		Timezone:    "Asia/Kolkata",
		TzOffset:    5.5,
	}
}

func completeResult() report.Result {
	return report.Result{
		WhatWentWell:      []string{"Consistency"},
		WhatCouldBeBetter: []string{"Delegation"},
		WhatWillNeverWork: []string{"Shortcuts"},
		WhatWillCompound:  []string{"Reading"},
		OperatingRule:     "Do fewer things, better.",
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		geo:    &fakeGeocoder{suggestions: map[string]geocode.Suggestion{}, result: bengaluru()},
		calc:   &fakeCalculator{resp: &calc.Response{Output: completeResult(), Meta: map[string]any{"engine": "v2"}}},
		store:  resultstore.NewMemory(),
		clock:  &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		timers: debounce.NewManualClock(),
	}

	f.session = New(Deps{Geocoder: f.geo, Calculator: f.calc, Store: f.store},
		WithClock(f.clock.Now),
		WithSuggestDebounce(time.Second, f.timers))

	t.Cleanup(f.session.Close)

	return f
}

func (f *fixture) toLocation(t *testing.T) {
	t.Helper()

	ctx := t.Context()

	require.NoError(t, f.session.SubmitIdentity(ctx,
		validators.IdentityInput{CountryCode: "+91", Phone: "9876543210", Consent: true}))
	require.NoError(t, f.session.SubmitBirth(ctx, validators.BirthInput{Date: "1990-05-17", Time: "14:30"}))
	require.Equal(t, StepLocation, f.session.View().Step)
}

func (f *fixture) verified(t *testing.T) {
	t.Helper()

	f.toLocation(t)

	ctx := t.Context()

	require.NoError(t, f.session.EditPostalCode(ctx, "560001"))
	require.NoError(t, f.session.EditCity(ctx, "Bangalore"))
	require.NoError(t, f.session.EditCountry(ctx, "IN"))

	_, err := f.session.Verify(ctx)
	require.NoError(t, err)
}

func TestNewSessionDefaults(t *testing.T) {
	t.Parallel()

	view := newFixture(t).session.View()

	assert.Equal(t, StepIdentity, view.Step)
	assert.Equal(t, DefaultCountry, view.Form.Country)
	assert.InDelta(t, DefaultTzOffset, view.Form.TzOffset, 0.0001)
	assert.False(t, view.Form.LocationVerified)
	assert.False(t, view.SubmitEnabled)
	assert.Equal(t, Control{Label: LabelVerify}, view.Verify)
	assert.NotEmpty(t, view.SessionID)
}

func TestIdentityConsentRequired(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	err := f.session.SubmitIdentity(t.Context(),
		validators.IdentityInput{CountryCode: "+91", Phone: "9876543210", Consent: false})
	require.ErrorIs(t, err, validators.ErrConsentRequired)
	assert.True(t, statemachine.IsRejected(err))

	view := f.session.View()
	assert.Equal(t, StepIdentity, view.Step)
	require.NotNil(t, view.Error)
	assert.Equal(t, "Please accept the Terms & Privacy Policy", view.Error.Message)
}

func TestIdentityAdvances(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	require.NoError(t, f.session.SubmitIdentity(t.Context(),
		validators.IdentityInput{CountryCode: "+91", Phone: " 9876543210 ", Consent: true}))

	view := f.session.View()
	assert.Equal(t, StepBirth, view.Step)
	assert.Equal(t, "+919876543210", view.Form.PhoneNumber)
	assert.True(t, view.Form.Consent)
}

func TestIdentityInvalidPhone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	err := f.session.SubmitIdentity(t.Context(),
		validators.IdentityInput{CountryCode: "+91", Phone: "98765", Consent: true})
	require.ErrorIs(t, err, validators.ErrInvalidFormat)
	assert.Equal(t, "Invalid phone number. Use 10-15 digits only.", f.session.View().Error.Message)
}

func TestBirthFutureDate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	require.NoError(t, f.session.SubmitIdentity(ctx,
		validators.IdentityInput{CountryCode: "+91", Phone: "9876543210", Consent: true}))

	err := f.session.SubmitBirth(ctx, validators.BirthInput{Date: "2030-01-01", Time: "10:00:00"})
	require.ErrorIs(t, err, validators.ErrFutureDate)

	view := f.session.View()
	assert.Equal(t, StepBirth, view.Step)
	assert.Equal(t, "Birth date cannot be in the future", view.Error.Message)

	err = f.session.SubmitBirth(ctx, validators.BirthInput{Date: "1990-05-17", Time: "25:00"})
	require.ErrorIs(t, err, validators.ErrInvalidFormat)

	require.NoError(t, f.session.SubmitBirth(ctx, validators.BirthInput{Date: "1990-05-17", Time: "9"}))

	view = f.session.View()
	assert.Equal(t, "9:00:00", view.Form.BirthTime)
	assert.Equal(t, "1990-05-17", view.Form.BirthDate)
	assert.Nil(t, view.Error, "errors of other steps are hidden")
}

func TestBlurBirthTime(t *testing.T) {
	t.Parallel()

	s := newFixture(t).session

	assert.Equal(t, "14:30:00", s.BlurBirthTime("14:30"))
	assert.Equal(t, "14:30:00", s.BlurBirthTime("14:30:"))
	assert.Equal(t, "7:00:00", s.BlurBirthTime("7"))
	assert.Equal(t, "25:00", s.BlurBirthTime("25:00"))
}

func TestOutOfOrderEvents(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	err := f.session.SubmitBirth(ctx, validators.BirthInput{Date: "1990-05-17", Time: "10"})
	require.ErrorIs(t, err, statemachine.ErrTransitionNotFound)
	assert.True(t, IsOutOfOrder(err))

	require.ErrorIs(t, f.session.EditCity(ctx, "Pune"), statemachine.ErrTransitionNotFound)

	_, err = f.session.Verify(ctx)
	require.ErrorIs(t, err, statemachine.ErrTransitionNotFound)

	_, err = f.session.Submit(ctx)
	require.ErrorIs(t, err, statemachine.ErrTransitionNotFound)

	assert.Equal(t, StepIdentity, f.session.View().Step)
	assert.Nil(t, f.session.View().Error)
}

func TestVerifyLocation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.verified(t)

	view := f.session.View()
	assert.True(t, view.Form.LocationVerified)
	assert.True(t, view.SubmitEnabled)
	assert.Equal(t, Control{Label: LabelVerified, Disabled: true}, view.Verify)
	assert.InDelta(t, 12.97, view.Form.Latitude, 0.0001)
	assert.InDelta(t, 77.59, view.Form.Longitude, 0.0001)
	assert.Equal(t, "Asia/Kolkata", view.Form.Timezone)
	require.NotNil(t, view.Preview)
	assert.Equal(t, "12.9700", view.Preview.Latitude)
	assert.Equal(t, "77.5900", view.Preview.Longitude)
	assert.Equal(t, "Bengaluru, Karnataka, India", view.Preview.DisplayName)

	res, err := f.session.Verify(t.Context())
	require.NoError(t, err)
	assert.Equal(t, bengaluru(), res)
	assert.Equal(t, 1, f.geo.verifyCalls, "a verified location is not looked up again")
}

func TestVerifyMissingFields(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.toLocation(t)

	require.NoError(t, f.session.EditPostalCode(t.Context(), "560001"))

	_, err := f.session.Verify(t.Context())
	require.ErrorIs(t, err, ErrMissingLocation)
	assert.Equal(t, MissingLocationMessage, f.session.View().Error.Message)
	assert.Zero(t, f.geo.verifyCalls)
}

func TestVerifyNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.geo.err = geocode.ErrLocationNotFound
	f.toLocation(t)

	ctx := t.Context()

	require.NoError(t, f.session.EditPostalCode(ctx, "000000"))
	require.NoError(t, f.session.EditCity(ctx, "Nowhere"))

	_, err := f.session.Verify(ctx)
	require.ErrorIs(t, err, geocode.ErrLocationNotFound)

	view := f.session.View()
	assert.False(t, view.Form.LocationVerified)
	assert.False(t, view.SubmitEnabled)
	assert.Equal(t, Control{Label: LabelVerify}, view.Verify)
	assert.Equal(t, geocode.NotFoundMessage, view.Error.Message)
}

func TestEditsResetVerification(t *testing.T) {
	t.Parallel()

	edits := map[string]func(s *Session, ctx context.Context) error{
		"country": func(s *Session, ctx context.Context) error { return s.EditCountry(ctx, "US") },
		"postal":  func(s *Session, ctx context.Context) error { return s.EditPostalCode(ctx, "560002") },
		"city":    func(s *Session, ctx context.Context) error { return s.EditCity(ctx, "Mysuru") },
		"same":    func(s *Session, ctx context.Context) error { return s.EditCity(ctx, "Bangalore") },
	}

	for name, edit := range edits {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.verified(t)

			require.NoError(t, edit(f.session, t.Context()))

			view := f.session.View()
			assert.False(t, view.Form.LocationVerified)
			assert.False(t, view.SubmitEnabled)
			assert.Nil(t, view.Preview)
			assert.Equal(t, Control{Label: LabelVerify}, view.Verify)

			_, err := f.session.Submit(t.Context())
			require.ErrorIs(t, err, ErrLocationNotVerified)
			assert.Equal(t, NotVerifiedMessage, f.session.View().Error.Message)
			assert.Empty(t, f.calc.payloads)
		})
	}
}

func TestSuggestionIsDebounced(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.geo.suggestions["560001"] = geocode.Suggestion{City: "Bengaluru", CountryCode: "IN"}
	f.toLocation(t)

	ctx := t.Context()

	for _, p := range []string{"5", "56", "560", "5600", "56000", "560001"} {
		require.NoError(t, f.session.EditPostalCode(ctx, p))
		f.timers.Advance(200 * time.Millisecond)
	}

	assert.Empty(t, f.geo.suggested)

	f.timers.Advance(800 * time.Millisecond)

	assert.Equal(t, []string{"560001"}, f.geo.suggested)

	view := f.session.View()
	assert.Equal(t, "Bengaluru", view.Form.City)
	assert.Equal(t, "IN", view.Form.Country)
}

func TestShortPostalCodeIsNotSuggested(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.toLocation(t)

	require.NoError(t, f.session.EditPostalCode(t.Context(), "5600"))
	f.timers.Advance(time.Second)

	assert.Empty(t, f.geo.suggested)
}

func TestLateSuggestionResetsVerification(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.geo.suggestions["560001"] = geocode.Suggestion{City: "Bengaluru", CountryCode: "IN"}
	f.verified(t)

	require.True(t, f.session.View().Form.LocationVerified)

	// The pending suggestion from EditPostalCode fires after verification
	// and replaces "Bangalore" with "Bengaluru".
	f.timers.Advance(time.Second)

	view := f.session.View()
	assert.Equal(t, "Bengaluru", view.Form.City)
	assert.False(t, view.Form.LocationVerified)
	assert.False(t, view.SubmitEnabled)
}

func TestVerifyIsNotReentrant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.toLocation(t)

	ctx := t.Context()

	require.NoError(t, f.session.EditPostalCode(ctx, "560001"))
	require.NoError(t, f.session.EditCity(ctx, "Bangalore"))

	f.geo.gate = make(chan struct{})
	f.geo.entered = make(chan struct{}, 1)

	done := make(chan error, 1)

	go func() {
		_, err := f.session.Verify(ctx)
		done <- err
	}()

	<-f.geo.entered

	assert.Equal(t, Control{Label: LabelVerifying, Disabled: true}, f.session.View().Verify)

	_, err := f.session.Verify(ctx)
	require.ErrorIs(t, err, ErrVerificationInFlight)

	_, err = f.session.Submit(ctx)
	require.ErrorIs(t, err, ErrVerificationInFlight)

	close(f.geo.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.geo.verifyCalls)
}

func TestEditDuringVerifyDiscardsResult(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.toLocation(t)

	ctx := t.Context()

	require.NoError(t, f.session.EditPostalCode(ctx, "560001"))
	require.NoError(t, f.session.EditCity(ctx, "Bangalore"))

	f.geo.gate = make(chan struct{})
	f.geo.entered = make(chan struct{}, 1)

	done := make(chan error, 1)

	go func() {
		_, err := f.session.Verify(ctx)
		done <- err
	}()

	<-f.geo.entered
	require.NoError(t, f.session.EditCity(ctx, "Mysuru"))

	view := f.session.View()
	assert.False(t, view.Form.LocationVerified)
	assert.Equal(t, Control{Label: LabelVerify}, view.Verify)

	f.geo.mut.Lock()
	gate := f.geo.gate
	f.geo.gate, f.geo.entered = nil, nil
	f.geo.mut.Unlock()

	_, err := f.session.Verify(ctx)
	require.NoError(t, err)

	close(gate)
	require.ErrorIs(t, <-done, ErrLocationChanged)

	view = f.session.View()
	assert.True(t, view.Form.LocationVerified)
	assert.Equal(t, Control{Label: LabelVerified, Disabled: true}, view.Verify)
	assert.Equal(t, 2, f.geo.verifyCalls)
}

func TestSubmitSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.verified(t)

	id, err := f.session.Submit(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Len(t, f.calc.payloads, 1)
	assert.Equal(t, calc.Payload{
		PhoneNumber: "+919876543210",
		Consent:     true,
		BirthDate:   "1990-05-17",
		BirthTime:   "14:30:00",
		Latitude:    12.97,
		Longitude:   77.59,
		TzOffset:    5.5,
	}, f.calc.payloads[0])

	view := f.session.View()
	assert.Equal(t, StepSubmitted, view.Step)
	assert.Equal(t, id, view.ResultID)

	doc, err := report.Load(t.Context(), f.store, id)
	require.NoError(t, err)
	assert.True(t, doc.Result.Complete())
	assert.Equal(t, "v2", doc.Meta["engine"])

	_, err = f.session.Submit(t.Context())
	require.ErrorIs(t, err, statemachine.ErrFinalState)
}

func TestSubmitRateLimited(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.calc.err = &calc.Error{Kind: calc.ErrRateLimited, StatusCode: 429, Message: calc.RateLimitedMessage}
	f.verified(t)

	_, err := f.session.Submit(t.Context())
	require.ErrorIs(t, err, calc.ErrRateLimited)

	view := f.session.View()
	assert.Equal(t, StepLocation, view.Step)
	assert.True(t, view.Form.LocationVerified)
	assert.True(t, view.SubmitEnabled)
	assert.False(t, view.Loading)
	assert.Equal(t, calc.RateLimitedMessage, view.Error.Message)

	_, _, err = resultstore.Load(t.Context(), f.store, "anything")
	require.ErrorIs(t, err, resultstore.ErrNotFound)
}

// metaFailingStore refuses metadata writes and remembers every key put.
type metaFailingStore struct {
	*resultstore.Memory

	mut  sync.Mutex
	puts []string
}

var errDiskFull = errors.New("disk full")

func (m *metaFailingStore) Put(ctx context.Context, key string, value []byte) error {
	m.mut.Lock()
	m.puts = append(m.puts, key)
	m.mut.Unlock()

	if strings.HasSuffix(key, "/"+resultstore.MetaKey) {
		return errDiskFull
	}

	return m.Memory.Put(ctx, key, value)
}

func TestSubmitLeavesNothingWhenSaveFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	store := &metaFailingStore{Memory: resultstore.NewMemory()}

	f.session = New(Deps{Geocoder: f.geo, Calculator: f.calc, Store: store},
		WithClock(f.clock.Now),
		WithSuggestDebounce(time.Second, f.timers))
	t.Cleanup(f.session.Close)

	f.verified(t)

	_, err := f.session.Submit(t.Context())
	require.ErrorIs(t, err, errDiskFull)

	view := f.session.View()
	assert.Equal(t, StepLocation, view.Step)
	assert.Empty(t, view.ResultID)
	assert.False(t, view.Loading)

	require.Len(t, store.puts, 2)

	for _, key := range store.puts {
		_, err := store.Get(t.Context(), key)
		require.ErrorIs(t, err, resultstore.ErrNotFound, key)
	}
}

func TestInlineErrorIsDismissed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_ = f.session.SubmitIdentity(t.Context(), validators.IdentityInput{Phone: "9876543210"})
	require.NotNil(t, f.session.View().Error)

	f.clock.Advance(5 * time.Second)
	require.NotNil(t, f.session.View().Error)

	f.clock.Advance(time.Second)
	assert.Nil(t, f.session.View().Error)
}

func TestReset(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.verified(t)

	_, err := f.session.Submit(t.Context())
	require.NoError(t, err)

	require.NoError(t, f.session.Reset(t.Context()))

	view := f.session.View()
	assert.Equal(t, StepIdentity, view.Step)
	assert.Equal(t, newFormState(), view.Form)
	assert.Empty(t, view.ResultID)

	f.verified(t)
	assert.True(t, f.session.View().SubmitEnabled)
}

func TestManager(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	m := NewManager(Deps{}, WithClock(clock.Now))
	t.Cleanup(m.Close)

	a := m.Create(t.Context())
	b := m.Create(t.Context())

	got, err := m.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = m.Get("nope")
	require.ErrorIs(t, err, ErrSessionNotFound)

	clock.Advance(20 * time.Minute)
	b.View()
	_ = b.BlurBirthTime("9")

	clock.Advance(15 * time.Minute)

	assert.Equal(t, 1, m.Sweep(30*time.Minute))
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(a.ID())
	require.ErrorIs(t, err, ErrSessionNotFound)
}

//nolint:paralleltest // swaps the default logger
func TestPhoneNeverLogged(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	slog.SetDefault(slogt.New(t))

	f := newFixture(t)
	f.verified(t)

	_, err := f.session.Submit(t.Context())
	require.NoError(t, err)

	assert.Equal(t, phoneFingerprint("+919876543210"), f.session.phoneFP)
	assert.NotContains(t, f.session.phoneFP, "9876543210")
	assert.Len(t, f.session.phoneFP, 16)
}

func TestMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MissingLocationMessage, Message(ErrMissingLocation))
	assert.Equal(t, geocode.NotFoundMessage, Message(geocode.ErrLocationNotFound))
	assert.Equal(t, "Server error: 500",
		Message(&calc.Error{Kind: calc.ErrServiceError, StatusCode: 500, Message: "Server error: 500"}))
	assert.Equal(t, "Birth date must be after 1900",
		Message(func() error { _, err := validators.ValidateDate("1850-01-01", time.Now()); return err }()))
	assert.Empty(t, Message(ErrVerificationInFlight))
}
