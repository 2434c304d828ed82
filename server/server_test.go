package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/amp-labs/effort-economics/calc"
	"github.com/amp-labs/effort-economics/geocode"
	"github.com/amp-labs/effort-economics/report"
	"github.com/amp-labs/effort-economics/resultstore"
	"github.com/amp-labs/effort-economics/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct{}

func (stubGeocoder) Suggest(context.Context, string) (geocode.Suggestion, bool) {
	return geocode.Suggestion{}, false
}

func (stubGeocoder) Verify(_ context.Context, _, _, city string) (geocode.Result, error) {
	if city == "Nowhere" {
		return geocode.Result{}, geocode.ErrLocationNotFound
	}

	return geocode.Result{Latitude: 12.97, Longitude: 77.59, DisplayName: "Bengaluru", Timezone: "Asia/Kolkata", TzOffset: 5.5}, nil
}

type stubCalculator struct {
	err error
}

func (s stubCalculator) Calculate(context.Context, calc.Payload) (*calc.Response, error) {
	if s.err != nil {
		return nil, s.err
	}

	return &calc.Response{Output: report.Result{
		WhatWentWell:      []string{"a"},
		WhatCouldBeBetter: []string{"b"},
		WhatWillNeverWork: []string{"c"},
		WhatWillCompound:  []string{"d"},
		OperatingRule:     "e",
	}}, nil
}

type stubRemote struct {
	mut   sync.Mutex
	votes []calc.Vote
}

func (r *stubRemote) Usage(context.Context) (int, error) {
	return 42, nil
}

func (r *stubRemote) FeedbackAsync(_ context.Context, vote calc.Vote) error {
	if err := vote.Validate(); err != nil {
		return err
	}

	r.mut.Lock()
	defer r.mut.Unlock()

	r.votes = append(r.votes, vote)

	return nil
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	remote *stubRemote
	store  resultstore.Store
}

func newHarness(t *testing.T, calculator wizard.Calculator) *harness {
	t.Helper()

	store := resultstore.NewMemory()
	manager := wizard.NewManager(wizard.Deps{Geocoder: stubGeocoder{}, Calculator: calculator, Store: store},
		wizard.WithSuggestDebounce(time.Hour, nil))
	t.Cleanup(manager.Close)

	remote := &stubRemote{}
	srv := httptest.NewServer(New(manager, store, remote).Handler())
	t.Cleanup(srv.Close)

	return &harness{t: t, srv: srv, remote: remote, store: store}
}

func (h *harness) do(method, path string, body any) (int, map[string]any) {
	h.t.Helper()

	var rdr io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)

		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(h.t.Context(), method, h.srv.URL+path, rdr)
	require.NoError(h.t, err)

	resp, err := h.srv.Client().Do(req)
	require.NoError(h.t, err)

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)

	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(h.t, json.Unmarshal(raw, &out))
	}

	return resp.StatusCode, out
}

func (h *harness) toLocation() string {
	h.t.Helper()

	status, view := h.do(http.MethodPost, "/api/sessions", nil)
	require.Equal(h.t, http.StatusCreated, status)

	id, _ := view["sessionId"].(string)
	require.NotEmpty(h.t, id)

	status, _ = h.do(http.MethodPost, "/api/sessions/"+id+"/identity",
		map[string]any{"countryCode": "+91", "phone": "9876543210", "consent": true})
	require.Equal(h.t, http.StatusOK, status)

	status, _ = h.do(http.MethodPost, "/api/sessions/"+id+"/birth",
		map[string]any{"date": "1990-05-17", "time": "14:30"})
	require.Equal(h.t, http.StatusOK, status)

	return id
}

func TestWizardOverHTTP(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubCalculator{})
	id := h.toLocation()

	status, body := h.do(http.MethodPost, "/api/sessions/"+id+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, wizard.NotVerifiedMessage, body["error"])
	assert.InDelta(t, 3, body["step"], 0)

	status, _ = h.do(http.MethodPatch, "/api/sessions/"+id+"/location",
		map[string]any{"country": "IN", "pincode": "560001", "city": "Bangalore"})
	require.Equal(t, http.StatusOK, status)

	status, view := h.do(http.MethodPost, "/api/sessions/"+id+"/verify", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, view["submitEnabled"])

	status, body = h.do(http.MethodPost, "/api/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, status)

	resultID, _ := body["resultId"].(string)
	require.NotEmpty(t, resultID)

	status, doc := h.do(http.MethodGet, "/api/results/"+resultID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 42, doc["usage"], 0)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, h.srv.URL+"/results/"+resultID, nil)
	require.NoError(t, err)

	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Contains(t, string(page), "42 people have mapped their effort structure.")

	status, _ = h.do(http.MethodDelete, "/api/results/"+resultID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = h.do(http.MethodGet, "/api/results/"+resultID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubCalculator{})

	_, view := h.do(http.MethodPost, "/api/sessions", nil)
	id, _ := view["sessionId"].(string)

	status, body := h.do(http.MethodPost, "/api/sessions/"+id+"/identity",
		map[string]any{"countryCode": "+91", "phone": "9876543210", "consent": false})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Please accept the Terms & Privacy Policy", body["error"])
	assert.InDelta(t, 1, body["step"], 0)

	status, _ = h.do(http.MethodPost, "/api/sessions/"+id+"/birth",
		map[string]any{"date": "1990-05-17", "time": "10"})
	assert.Equal(t, http.StatusConflict, status, "birth details on step 1")

	status, body = h.do(http.MethodPost, "/api/sessions/"+id+"/birth-time", map[string]any{"time": "9"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "9:00:00", body["time"])

	status, _ = h.do(http.MethodGet, "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost,
		h.srv.URL+"/api/sessions/"+id+"/identity", bytes.NewReader([]byte("{")))
	require.NoError(t, err)

	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLocationNotFound(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubCalculator{})
	id := h.toLocation()

	h.do(http.MethodPatch, "/api/sessions/"+id+"/location", map[string]any{"pincode": "000000", "city": "Nowhere"})

	status, body := h.do(http.MethodPost, "/api/sessions/"+id+"/verify", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, geocode.NotFoundMessage, body["error"])
}

func TestRateLimited(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubCalculator{err: &calc.Error{
		Kind: calc.ErrRateLimited, StatusCode: http.StatusTooManyRequests, Message: calc.RateLimitedMessage,
	}})
	id := h.toLocation()

	h.do(http.MethodPatch, "/api/sessions/"+id+"/location", map[string]any{"pincode": "560001", "city": "Bangalore"})
	h.do(http.MethodPost, "/api/sessions/"+id+"/verify", nil)

	status, body := h.do(http.MethodPost, "/api/sessions/"+id+"/submit", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, calc.RateLimitedMessage, body["error"])

	view, _ := body["view"].(map[string]any)
	form, _ := view["form"].(map[string]any)
	assert.Equal(t, true, form["locationVerified"])
	assert.Equal(t, true, view["submitEnabled"])
}

func TestUsageFeedbackHealth(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubCalculator{})

	status, body := h.do(http.MethodGet, "/api/usage", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "42 people have mapped their effort structure.", body["line"])

	status, _ = h.do(http.MethodPost, "/api/feedback", map[string]any{"vote": "UP"})
	assert.Equal(t, http.StatusAccepted, status)

	status, _ = h.do(http.MethodPost, "/api/feedback", map[string]any{"vote": "sideways"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	assert.Equal(t, []calc.Vote{calc.VoteUp}, h.remote.votes)

	status, _ = h.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestMissingResultPageRedirects(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubCalculator{})

	client := h.srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, h.srv.URL+"/results/nope", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 3*time.Minute, cfg.SweepInterval)
}
