package wizard

import (
	"fmt"
	"time"
)

// Defaults of a fresh form.
const (
	DefaultCountry  = "IN"
	DefaultTzOffset = 5.5
)

// Verify control labels.
const (
	LabelVerify    = "Verify Location"
	LabelVerifying = "Verifying..."
	LabelVerified  = "✓ Location Verified"
)

// FormState is everything collected so far.
type FormState struct {
	PhoneNumber      string  `json:"phoneNumber,omitempty"`
	Consent          bool    `json:"consent"`
	BirthDate        string  `json:"birthDate,omitempty"`
	BirthTime        string  `json:"birthTime,omitempty"`
	Country          string  `json:"country"`
	PostalCode       string  `json:"pincode,omitempty"`
	City             string  `json:"city,omitempty"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Timezone         string  `json:"timezone,omitempty"`
	TzOffset         float64 `json:"tzOffset"`
	LocationVerified bool    `json:"locationVerified"`
}

func newFormState() FormState {
	return FormState{
		Country:  DefaultCountry,
		TzOffset: DefaultTzOffset,
	}
}

// Control is the state of a button.
type Control struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// Preview is shown under the location fields once verified.
type Preview struct {
	DisplayName string `json:"displayName"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
}

func newPreview(displayName string, lat, lon float64) *Preview {
	return &Preview{
		DisplayName: displayName,
		Latitude:    fmt.Sprintf("%.4f", lat),
		Longitude:   fmt.Sprintf("%.4f", lon),
	}
}

// InlineError is a message attached to one step's form.
type InlineError struct {
	Step    Step      `json:"step"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// View is a snapshot for rendering.
type View struct {
	SessionID     string       `json:"sessionId"`
	Step          Step         `json:"step"`
	State         string       `json:"state"`
	Form          FormState    `json:"form"`
	Verify        Control      `json:"verify"`
	SubmitEnabled bool         `json:"submitEnabled"`
	Loading       bool         `json:"loading"`
	Preview       *Preview     `json:"preview,omitempty"`
	Error         *InlineError `json:"error,omitempty"`
	ResultID      string       `json:"resultId,omitempty"`
}
