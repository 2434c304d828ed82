// Package validators checks the raw values a person types into the wizard.
// Every function is pure; the current time is passed in explicitly.
package validators

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidFormat   = errors.New("invalid format")
	ErrConsentRequired = errors.New("consent required")
	ErrFutureDate      = errors.New("date is in the future")
	ErrTooOld          = errors.New("date is too old")
)

// MinBirthYear is the earliest accepted birth year.
const MinBirthYear = 1900

// DateLayout is the wire format of birth dates.
const DateLayout = "2006-01-02"

var (
	phonePattern = regexp.MustCompile(`^\d{10,15}$`)
	timePattern  = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9]$`)

	hourOnly      = regexp.MustCompile(`^([01]?[0-9]|2[0-3])$`)
	hourMinute    = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
	trailingColon = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]:$`)
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Field names the input a validation error belongs to.
type Field string

const (
	FieldPhone Field = "phone"
	FieldTime  Field = "time"
	FieldDate  Field = "date"
)

// FieldError ties a validation failure to its field and user-facing copy.
type FieldError struct {
	Field   Field
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldError(field Field, err error, message string) error {
	return &FieldError{Field: field, Message: message, Err: err}
}

// ValidatePhone trims raw and accepts 10 to 15 ASCII digits. The dialing
// prefix is joined on afterwards with JoinPhone.
func ValidatePhone(raw string) (string, error) {
	digits := strings.TrimSpace(raw)

	if !phonePattern.MatchString(digits) {
		return "", fieldError(FieldPhone, ErrInvalidFormat, "Invalid phone number. Use 10-15 digits only.")
	}

	return digits, nil
}

// JoinPhone concatenates a dialing prefix such as "+91" with the digits.
func JoinPhone(countryCode, digits string) string {
	return strings.TrimSpace(countryCode) + strings.TrimSpace(digits)
}

// ValidateConsent requires the terms checkbox to be ticked.
func ValidateConsent(consent bool) error {
	if !consent {
		return &FieldError{Field: "consent", Message: "Please accept the Terms & Privacy Policy", Err: ErrConsentRequired}
	}

	return nil
}

// AutoCompleteTime expands a partial time the way the birth time field does
// when it loses focus: "9" becomes "9:00:00", "14:30" and "14:30:"
// become "14:30:00". Only in-range hours and minutes are completed;
// anything else is returned trimmed and unchanged.
func AutoCompleteTime(raw string) string {
	s := strings.TrimSpace(raw)

	switch {
	case hourOnly.MatchString(s):
		return s + ":00:00"
	case hourMinute.MatchString(s):
		return s + ":00"
	case trailingColon.MatchString(s):
		return s + "00"
	default:
		return s
	}
}

// NormalizeTime auto-completes raw and checks it is a 24-hour HH:MM:SS.
func NormalizeTime(raw string) (string, error) {
	s := AutoCompleteTime(raw)

	if !timePattern.MatchString(s) {
		return "", fieldError(FieldTime, ErrInvalidFormat, "Birth time must be in HH:MM:SS format (e.g., 14:30:00)")
	}

	return s, nil
}

// ValidateDate parses a YYYY-MM-DD date and rejects dates after now or
// before MinBirthYear. The comparison is by calendar date in UTC, so
// today's date is accepted.
func ValidateDate(raw string, now time.Time) (time.Time, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fieldError(FieldDate, ErrInvalidFormat, "Please enter a valid birth date")
	}

	nowUTC := now.UTC()
	today := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)

	if date.After(today) {
		return time.Time{}, fieldError(FieldDate, ErrFutureDate, "Birth date cannot be in the future")
	}

	if date.Year() < MinBirthYear {
		return time.Time{}, fieldError(FieldDate, ErrTooOld, "Birth date must be after 1900")
	}

	return date, nil
}

// Message returns the user-facing copy of err, or the empty string when err
// carries none.
func Message(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Message
	}

	return ""
}
