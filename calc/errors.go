package calc

import (
	"errors"
	"fmt"
)

var (
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceError       = errors.New("calculation service error")
	ErrValidationRejected = errors.New("calculation rejected")
	ErrNetworkError       = errors.New("calculation service unreachable")
	ErrInvalidVote        = errors.New("vote must be up or down")
)

// User-facing copy.
const (
	RateLimitedMessage = "Maximum 3 calculations reached for this phone number. This prevents misuse."
	RejectedMessage    = "Calculation failed"
	NetworkMessage     = "Calculation failed. Please try again."
)

// Error is a failed submission. Kind is one of the package sentinels and
// Message is what the person sees.
type Error struct {
	Kind       error
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Cause}
}

func serviceError(status int, remote string) *Error {
	msg := remote
	if msg == "" {
		msg = fmt.Sprintf("Server error: %d", status)
	}

	return &Error{Kind: ErrServiceError, StatusCode: status, Message: msg}
}

// Message returns the user-facing copy of err, falling back to the
// generic network message.
func Message(err error) string {
	var ce *Error
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}

	return NetworkMessage
}
