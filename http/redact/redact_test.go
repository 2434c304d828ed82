package redact_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/amp-labs/effort-economics/http/redact"
	"github.com/stretchr/testify/assert"
)

func TestPartiallyRedactString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		value        string
		visibleRunes int
		truncate     bool
		expected     string
	}{
		{name: "mask phone", value: "+919876543210", visibleRunes: 3, expected: "+91**********"},
		{name: "truncate", value: "560001", visibleRunes: 2, truncate: true, expected: "56[redacted]"},
		{name: "short string unchanged", value: "short", visibleRunes: 10, expected: "short"},
		{name: "empty string", value: "", visibleRunes: 5, expected: ""},
		{name: "zero visible runes", value: "secret", visibleRunes: 0, expected: "******"},
		{name: "unicode", value: "Zürich", visibleRunes: 2, expected: "Zü****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, redact.PartiallyRedactString(tt.value, tt.visibleRunes, tt.truncate))
		})
	}
}

func TestURLDefault(t *testing.T) {
	t.Parallel()

	u, err := url.Parse("https://nominatim.example/search?format=json&q=Bangalore%2C+560001%2C+India&limit=1")
	assert.NoError(t, err)

	out := redact.URL(t.Context(), u, redact.Default())

	assert.Contains(t, out, "q=%5Bredacted%5D")
	assert.Contains(t, out, "limit=1")
	assert.NotContains(t, out, "560001")
	assert.Equal(t, "", redact.URL(t.Context(), nil, nil))
}

func TestHeaders(t *testing.T) {
	t.Parallel()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer abc")
	headers.Set("User-Agent", "EffortEconomics/1.0")

	out := redact.Headers(t.Context(), headers, redact.Default())

	assert.Equal(t, "[redacted]", out.Get("Authorization"))
	assert.Equal(t, "EffortEconomics/1.0", out.Get("User-Agent"))
	assert.Nil(t, redact.Headers(t.Context(), nil, nil))

	clone := redact.Headers(t.Context(), headers, nil)
	clone.Set("User-Agent", "x")
	assert.Equal(t, "EffortEconomics/1.0", headers.Get("User-Agent"))
}

func TestURLValuesActions(t *testing.T) {
	t.Parallel()

	values := url.Values{"a": {"keep"}, "b": {"secret"}, "c": {"gone"}}

	out := redact.URLValues(t.Context(), values, func(_ context.Context, key, _ string) (redact.Action, int) {
		switch key {
		case "b":
			return redact.ActionRedactPartialWithMask, 1
		case "c":
			return redact.ActionDelete, 0
		default:
			return redact.ActionKeep, 0
		}
	})

	assert.Equal(t, "keep", out.Get("a"))
	assert.Equal(t, "s*****", out.Get("b"))
	assert.False(t, out.Has("c"))
}
