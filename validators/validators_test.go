package validators

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "9876543210", want: "9876543210", ok: true},
		{raw: "  9876543210 ", want: "9876543210", ok: true},
		{raw: "123456789012345", want: "123456789012345", ok: true},
		{raw: "123456789", ok: false},
		{raw: "1234567890123456", ok: false},
		{raw: "98765-43210", ok: false},
		{raw: "+919876543210", ok: false},
		{raw: "", ok: false},
		{raw: "٩٨٧٦٥٤٣٢١٠", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, err := ValidatePhone(tt.raw)
			if !tt.ok {
				require.ErrorIs(t, err, ErrInvalidFormat)
				assert.Equal(t, "Invalid phone number. Use 10-15 digits only.", Message(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinPhone(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+919876543210", JoinPhone("+91", "9876543210"))
}

func TestValidateConsent(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateConsent(true))

	err := ValidateConsent(false)
	require.ErrorIs(t, err, ErrConsentRequired)
	assert.Equal(t, "Please accept the Terms & Privacy Policy", err.Error())
}

func TestNormalizeTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "9", want: "9:00:00"},
		{raw: "09", want: "09:00:00"},
		{raw: "14:30", want: "14:30:00"},
		{raw: "14:30:", want: "14:30:00"},
		{raw: "14:30:15", want: "14:30:15"},
		{raw: " 23:59:59 ", want: "23:59:59"},
		{raw: "0:00:00", want: "0:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeTime(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"25:00", "24:00:00", "12:60:00", "12:30:60", "noon", "", "1:2:3"} {
		_, err := NormalizeTime(bad)
		require.ErrorIs(t, err, ErrInvalidFormat, bad)
		assert.Equal(t, "Birth time must be in HH:MM:SS format (e.g., 14:30:00)", Message(err))
	}
}

func TestAutoCompleteTimeLeavesInvalidAlone(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "25:00", AutoCompleteTime(" 25:00 "))
	assert.Equal(t, "14:30:00", AutoCompleteTime("14:30"))
}

func TestValidateDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 15, 4, 5, 0, time.UTC)

	_, err := ValidateDate("2030-01-01", now)
	require.ErrorIs(t, err, ErrFutureDate)
	assert.Equal(t, "Birth date cannot be in the future", Message(err))

	_, err = ValidateDate("2026-10-19", now)
	require.ErrorIs(t, err, ErrFutureDate)

	got, err := ValidateDate("2026-10-18", now)
	require.NoError(t, err, "today is accepted")
	assert.Equal(t, 18, got.Day())

	_, err = ValidateDate("1899-12-31", now)
	require.ErrorIs(t, err, ErrTooOld)
	assert.Equal(t, "Birth date must be after 1900", Message(err))

	_, err = ValidateDate("1900-01-01", now)
	require.NoError(t, err)

	_, err = ValidateDate("18/10/1990", now)
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestIdentityInput(t *testing.T) {
	t.Parallel()

	err := IdentityInput{CountryCode: "+91", Phone: "9876543210", Consent: false}.Validate()
	require.ErrorIs(t, err, ErrConsentRequired)

	err = IdentityInput{CountryCode: "+91", Phone: "12", Consent: false}.Validate()
	require.ErrorIs(t, err, ErrConsentRequired, "consent is checked first")

	in := IdentityInput{CountryCode: "+91", Phone: "9876543210", Consent: true}
	require.NoError(t, in.Validate())
	assert.Equal(t, "+919876543210", in.FullPhone())
}

func TestBirthInput(t *testing.T) {
	t.Parallel()

	fixed := func() time.Time { return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := WithClock(t.Context(), fixed)

	require.ErrorIs(t, BirthInput{Date: "2021-01-01", Time: "10"}.Validate(ctx), ErrFutureDate)
	require.NoError(t, BirthInput{Date: "2021-01-01", Time: "10"}.Validate(context.Background()))
	require.ErrorIs(t, BirthInput{Date: "1990-05-17", Time: "99"}.Validate(ctx), ErrInvalidFormat)

	date, tm, err := BirthInput{Date: "1990-05-17", Time: "14:30"}.Normalize(fixed())
	require.NoError(t, err)
	assert.Equal(t, "1990-05-17", date)
	assert.Equal(t, "14:30:00", tm)
}
