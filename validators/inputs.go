package validators

import (
	"context"
	"time"
)

// IdentityInput is the first wizard step.
type IdentityInput struct {
	CountryCode string `json:"countryCode"`
	Phone       string `json:"phone"`
	Consent     bool   `json:"consent"`
}

// Validate checks consent first, then the local digits. The country code
// is a prefix such as "+91" and is not part of the digit check.
func (in IdentityInput) Validate() error {
	if err := ValidateConsent(in.Consent); err != nil {
		return err
	}

	_, err := ValidatePhone(in.Phone)

	return err
}

// FullPhone returns the country code joined with the digits.
func (in IdentityInput) FullPhone() string {
	return JoinPhone(in.CountryCode, in.Phone)
}

// BirthInput is the second wizard step.
type BirthInput struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type clockKey struct{}

// WithClock makes BirthInput validation use clock instead of time.Now.
func WithClock(ctx context.Context, clock Clock) context.Context {
	return context.WithValue(ctx, clockKey{}, clock)
}

func clockFrom(ctx context.Context) Clock {
	if clock, ok := ctx.Value(clockKey{}).(Clock); ok && clock != nil {
		return clock
	}

	return time.Now
}

// Validate checks the time format, then the date.
func (in BirthInput) Validate(ctx context.Context) error {
	if _, err := NormalizeTime(in.Time); err != nil {
		return err
	}

	_, err := ValidateDate(in.Date, clockFrom(ctx)())

	return err
}

// Normalize returns the parsed date and the HH:MM:SS time.
func (in BirthInput) Normalize(now time.Time) (string, string, error) {
	birthTime, err := NormalizeTime(in.Time)
	if err != nil {
		return "", "", err
	}

	date, err := ValidateDate(in.Date, now)
	if err != nil {
		return "", "", err
	}

	return date.Format(DateLayout), birthTime, nil
}
