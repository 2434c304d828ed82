package timezone

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessByBoundingBox(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{name: "bengaluru", lat: 12.97, lon: 77.59, want: "Asia/Kolkata"},
		{name: "new york", lat: 40.71, lon: -74.0, want: "America/New_York"},
		{name: "los angeles", lat: 34.05, lon: -118.24, want: "America/Los_Angeles"},
		{name: "london", lat: 51.5, lon: -0.12, want: "Europe/London"},
		{name: "dubai", lat: 25.2, lon: 55.27, want: "Asia/Dubai"},
		{name: "singapore", lat: 1.35, lon: 103.8, want: "Asia/Singapore"},
		{name: "sydney", lat: -33.87, lon: 151.2, want: "Australia/Sydney"},
		{name: "tokyo falls back", lat: 35.68, lon: 139.69, want: "UTC"},
		{name: "edge is exclusive", lat: 8, lon: 77, want: "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, GuessByBoundingBox(tt.lat, tt.lon))
		})
	}
}

func TestOffsetForZone(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 5.5, OffsetForZone("Asia/Kolkata"), 0.0001)
	assert.InDelta(t, -8.0, OffsetForZone("America/Los_Angeles"), 0.0001)
	assert.InDelta(t, 9.0, OffsetForZone("Asia/Tokyo"), 0.0001)
	assert.InDelta(t, 0.0, OffsetForZone("Mars/Olympus"), 0.0001)
	assert.Len(t, DefaultOffsets(), 11)
}

func TestResolveRemote(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/TimeZone/coordinate", r.URL.Path)
		assert.Equal(t, "12.97", r.URL.Query().Get("latitude"))
		assert.Equal(t, "77.59", r.URL.Query().Get("longitude"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"timeZone":"Asia/Kolkata","currentLocalTime":"2026-01-01T00:00:00"}`))
	}))
	t.Cleanup(srv.Close)

	r := NewResolver(srv.Client(), WithBaseURL(srv.URL+"/"))
	zone := r.Resolve(t.Context(), 12.97, 77.59)

	assert.Equal(t, "Asia/Kolkata", zone.Name)
	assert.InDelta(t, 5.5, zone.Offset, 0.0001)
	assert.False(t, zone.Guessed)
}

func TestResolveFallsBack(t *testing.T) {
	t.Parallel()

	handlers := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"malformed": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"timeZone":`))
		},
		"empty zone": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"timeZone":""}`))
		},
		"slow": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(handler)
			t.Cleanup(srv.Close)

			r := NewResolver(srv.Client(), WithBaseURL(srv.URL), WithTimeout(100*time.Millisecond))
			zone := r.Resolve(t.Context(), 12.97, 77.59)

			assert.Equal(t, "Asia/Kolkata", zone.Name)
			assert.InDelta(t, 5.5, zone.Offset, 0.0001)
			assert.True(t, zone.Guessed)
		})
	}
}

func TestResolveUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	zone := NewResolver(nil, WithBaseURL(base)).Resolve(t.Context(), 40.71, -74.0)

	assert.Equal(t, "America/New_York", zone.Name)
	assert.InDelta(t, -5.0, zone.Offset, 0.0001)
}

func TestCustomTables(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil,
		WithRules(BoxRule{Name: "japan", MinLat: 30, MaxLat: 46, MinLon: 129, MaxLon: 146, Zone: "Asia/Tokyo"}),
		WithOffsets(ZoneOffset{Zone: "Asia/Tokyo", Hours: 9}))

	require.Equal(t, "Asia/Tokyo", r.Guess(35.68, 139.69))
	assert.InDelta(t, 9.0, r.Offset("Asia/Tokyo"), 0.0001)
	assert.Equal(t, FallbackZone, r.Guess(12.97, 77.59))
}
