package wizard

import (
	"context"
	"strings"

	"github.com/amp-labs/effort-economics/geocode"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/amp-labs/effort-economics/statemachine"
)

// EditCountry changes the country and drops any verification.
func (s *Session) EditCountry(ctx context.Context, country string) error {
	return s.edit(ctx, func(f *FormState) {
		f.Country = strings.ToUpper(strings.TrimSpace(country))
	})
}

// EditCity changes the city and drops any verification.
func (s *Session) EditCity(ctx context.Context, city string) error {
	return s.edit(ctx, func(f *FormState) {
		f.City = city
	})
}

// EditPostalCode changes the postal code, drops any verification and
// schedules a debounced city and country suggestion.
func (s *Session) EditPostalCode(ctx context.Context, postal string) error {
	if err := s.edit(ctx, func(f *FormState) {
		f.PostalCode = postal
	}); err != nil {
		return err
	}

	bg := context.WithoutCancel(s.logContext(ctx))

	s.suggest.Schedule(func() {
		s.applySuggestion(bg)
	})

	return nil
}

func (s *Session) edit(ctx context.Context, apply func(f *FormState)) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	s.touch()

	if state := s.sm.State(); state != StateLocation {
		return statemachine.WrapStateError(state, statemachine.ErrTransitionNotFound)
	}

	if s.submitting {
		return ErrSubmissionInFlight
	}

	apply(&s.form)
	s.resetVerification(s.logContext(ctx))

	return nil
}

// resetVerification must run on every location change. Callers hold the
// lock.
func (s *Session) resetVerification(ctx context.Context) {
	s.locationRev++

	if s.form.LocationVerified {
		logger.Get(ctx).Debug("location changed, verification reset")
	}

	s.form.LocationVerified = false
	s.sm.Set(dataLocationVerified, false)
	s.preview = nil
}

// applySuggestion fills city and country from the postal code. A response
// for an older postal code is not detected.
func (s *Session) applySuggestion(ctx context.Context) {
	s.mut.Lock()

	if s.sm.State() != StateLocation || s.submitting {
		s.mut.Unlock()

		return
	}

	postal := strings.TrimSpace(s.form.PostalCode)
	s.mut.Unlock()

	if len([]rune(postal)) < geocode.MinSuggestLength {
		return
	}

	suggestion, ok := s.deps.Geocoder.Suggest(ctx, postal)
	if !ok {
		return
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	if s.sm.State() != StateLocation || s.submitting {
		return
	}

	changed := false

	if suggestion.City != "" && suggestion.City != s.form.City {
		s.form.City = suggestion.City
		changed = true
	}

	if suggestion.CountryCode != "" && suggestion.CountryCode != s.form.Country {
		s.form.Country = suggestion.CountryCode
		changed = true
	}

	if changed {
		s.resetVerification(ctx)
	}
}

// Verify geocodes the current location. It is not re-entrant for the same
// inputs; once the location is edited the pending lookup no longer counts
// and a new one may start. A result that arrives after the location was
// edited is discarded with ErrLocationChanged. Verifying an already verified location returns the
// stored coordinates without a lookup.
func (s *Session) Verify(ctx context.Context) (geocode.Result, error) {
	s.mut.Lock()

	s.touch()
	ctx = s.logContext(ctx)

	if state := s.sm.State(); state != StateLocation {
		s.mut.Unlock()

		return geocode.Result{}, statemachine.WrapStateError(state, statemachine.ErrTransitionNotFound)
	}

	if s.verifyInFlight() {
		s.mut.Unlock()

		return geocode.Result{}, ErrVerificationInFlight
	}

	if s.submitting {
		s.mut.Unlock()

		return geocode.Result{}, ErrSubmissionInFlight
	}

	if s.form.LocationVerified {
		res := s.verifiedResult()
		s.mut.Unlock()

		return res, nil
	}

	country := strings.TrimSpace(s.form.Country)
	postal := strings.TrimSpace(s.form.PostalCode)
	city := strings.TrimSpace(s.form.City)

	if country == "" || postal == "" || city == "" {
		err := s.fail(StepLocation, ErrMissingLocation, MissingLocationMessage)
		s.mut.Unlock()

		return geocode.Result{}, err
	}

	rev := s.locationRev
	s.verifying = true
	s.verifyRev = rev
	s.mut.Unlock()

	res, err := s.deps.Geocoder.Verify(ctx, country, postal, city)

	s.mut.Lock()
	defer s.mut.Unlock()

	if s.verifyRev == rev {
		s.verifying = false
	}

	if rev != s.locationRev {
		logger.Get(ctx).Debug("discarding verification of a changed location")

		return geocode.Result{}, ErrLocationChanged
	}

	if err != nil {
		logger.Get(ctx).Info("location verification failed", "error", err)

		return geocode.Result{}, s.fail(StepLocation, err, geocode.NotFoundMessage)
	}

	s.form.Latitude = res.Latitude
	s.form.Longitude = res.Longitude
	s.form.Timezone = res.Timezone
	s.form.TzOffset = res.TzOffset
	s.form.LocationVerified = true
	s.sm.Set(dataLocationVerified, true)
	s.preview = newPreview(res.DisplayName, res.Latitude, res.Longitude)

	logger.Get(ctx).Info("location verified", "timezone", res.Timezone, "tz_offset", res.TzOffset)

	return res, nil
}

// verifyInFlight reports a lookup for the current inputs. Callers hold the
// lock.
func (s *Session) verifyInFlight() bool {
	return s.verifying && s.verifyRev == s.locationRev
}

func (s *Session) verifiedResult() geocode.Result {
	res := geocode.Result{
		Latitude:  s.form.Latitude,
		Longitude: s.form.Longitude,
		Timezone:  s.form.Timezone,
		TzOffset:  s.form.TzOffset,
	}

	if s.preview != nil {
		res.DisplayName = s.preview.DisplayName
	}

	return res
}
