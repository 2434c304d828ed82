package wizard

import (
	"context"
	"errors"

	"github.com/amp-labs/effort-economics/calc"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/amp-labs/effort-economics/resultstore"
	"github.com/google/uuid"
)

// Payload builds the calculation request from the form.
func (s *Session) Payload() calc.Payload {
	s.mut.Lock()
	defer s.mut.Unlock()

	return s.payload()
}

func (s *Session) payload() calc.Payload {
	return calc.Payload{
		PhoneNumber: s.form.PhoneNumber,
		Consent:     s.form.Consent,
		BirthDate:   s.form.BirthDate,
		BirthTime:   s.form.BirthTime,
		Latitude:    s.form.Latitude,
		Longitude:   s.form.Longitude,
		TzOffset:    s.form.TzOffset,
	}
}

// Submit sends the verified form for calculation, stores the result and
// moves to the submitted state. It returns the result id. On failure the
// session stays on step 3 with its verification intact. Location edits
// are refused while the call is in flight.
func (s *Session) Submit(ctx context.Context) (string, error) {
	s.mut.Lock()

	s.touch()
	ctx = s.logContext(ctx)

	if s.submitting {
		s.mut.Unlock()

		return "", ErrSubmissionInFlight
	}

	if s.verifyInFlight() {
		s.mut.Unlock()

		return "", ErrVerificationInFlight
	}

	if err := s.engine.Check(ctx, s.sm, StateSubmitted); err != nil {
		if errors.Is(err, ErrLocationNotVerified) {
			err = s.fail(StepLocation, err, NotVerifiedMessage)
		}

		s.mut.Unlock()

		return "", err
	}

	payload := s.payload()
	s.submitting = true
	s.mut.Unlock()

	resultID, err := s.calculate(ctx, payload)

	s.mut.Lock()
	defer s.mut.Unlock()

	s.submitting = false

	if err != nil {
		logger.Get(ctx).Warn("submission failed", "error", err)

		return "", s.fail(StepLocation, err, calc.Message(err))
	}

	if err := s.engine.Advance(ctx, s.sm, StateSubmitted); err != nil {
		return "", err
	}

	s.resultID = resultID
	s.inline = nil

	logger.Get(ctx).Info("calculation stored", "result_id", resultID)

	return resultID, nil
}

func (s *Session) calculate(ctx context.Context, payload calc.Payload) (string, error) {
	callCtx := ctx

	if s.submitTimeout > 0 {
		var cancel context.CancelFunc

		callCtx, cancel = context.WithTimeout(ctx, s.submitTimeout)
		defer cancel()
	}

	resp, err := s.deps.Calculator.Calculate(callCtx, payload)
	if err != nil {
		return "", err
	}

	var meta any
	if len(resp.Meta) > 0 {
		meta = resp.Meta
	}

	resultID := uuid.NewString()

	if err := resultstore.Save(ctx, s.deps.Store, resultID, resp.Output, meta); err != nil {
		return "", err
	}

	return resultID, nil
}
