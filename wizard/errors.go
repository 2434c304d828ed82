package wizard

import (
	"errors"

	"github.com/amp-labs/effort-economics/calc"
	"github.com/amp-labs/effort-economics/geocode"
	"github.com/amp-labs/effort-economics/validators"
)

var (
	ErrLocationNotVerified  = errors.New("location not verified")
	ErrMissingLocation      = errors.New("location incomplete")
	ErrVerificationInFlight = errors.New("verification already in progress")
	ErrSubmissionInFlight   = errors.New("submission already in progress")
	ErrLocationChanged      = errors.New("location changed during verification")
	ErrSessionNotFound      = errors.New("session not found")
)

// User-facing copy.
const (
	MissingLocationMessage = "Please enter pin code, city, and select country"
	NotVerifiedMessage     = "Please verify location first"
)

// Message returns the copy shown to the person for err, or the empty
// string when err is not something they can act on.
func Message(err error) string {
	if msg := validators.Message(err); msg != "" {
		return msg
	}

	var ce *calc.Error

	switch {
	case errors.Is(err, ErrMissingLocation):
		return MissingLocationMessage
	case errors.Is(err, ErrLocationNotVerified):
		return NotVerifiedMessage
	case errors.Is(err, geocode.ErrLocationNotFound):
		return geocode.NotFoundMessage
	case errors.As(err, &ce):
		return ce.Message
	default:
		return ""
	}
}
