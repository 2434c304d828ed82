// Package server exposes the wizard over HTTP/JSON and serves the result
// page.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/amp-labs/effort-economics/calc"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/amp-labs/effort-economics/resultstore"
	"github.com/amp-labs/effort-economics/wizard"
	"github.com/google/uuid"
)

const (
	maxBodyBytes = 64 * 1024
	usageTimeout = 3 * time.Second
)

// Remote is the part of *calc.Client the server proxies.
type Remote interface {
	Usage(ctx context.Context) (int, error)
	FeedbackAsync(ctx context.Context, vote calc.Vote) error
}

// Server routes requests to wizard sessions and stored results.
type Server struct {
	sessions *wizard.Manager
	store    resultstore.Store
	remote   Remote
	mux      *http.ServeMux
}

// New creates a Server.
func New(sessions *wizard.Manager, store resultstore.Store, remote Remote) *Server {
	s := &Server{
		sessions: sessions,
		store:    store,
		remote:   remote,
		mux:      http.NewServeMux(),
	}

	s.routes()

	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/sessions", s.createSession)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.withSession(s.getSession))
	s.mux.HandleFunc("POST /api/sessions/{id}/identity", s.withSession(s.submitIdentity))
	s.mux.HandleFunc("POST /api/sessions/{id}/birth-time", s.withSession(s.blurBirthTime))
	s.mux.HandleFunc("POST /api/sessions/{id}/birth", s.withSession(s.submitBirth))
	s.mux.HandleFunc("PATCH /api/sessions/{id}/location", s.withSession(s.editLocation))
	s.mux.HandleFunc("POST /api/sessions/{id}/verify", s.withSession(s.verify))
	s.mux.HandleFunc("POST /api/sessions/{id}/submit", s.withSession(s.submit))
	s.mux.HandleFunc("POST /api/sessions/{id}/reset", s.withSession(s.reset))
	s.mux.HandleFunc("GET /api/results/{id}", s.getResult)
	s.mux.HandleFunc("DELETE /api/results/{id}", s.clearResult)
	s.mux.HandleFunc("GET /results/{id}", s.resultPage)
	s.mux.HandleFunc("GET /api/usage", s.usage)
	s.mux.HandleFunc("POST /api/feedback", s.feedback)
	s.mux.HandleFunc("GET /healthz", s.healthz)
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = newRequestID()
		}

		ctx := logger.WithRequestId(r.Context(), requestID)

		if r.URL.Path == "/healthz" {
			ctx = logger.WithMuted(ctx, true)
		}

		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		req := r.WithContext(ctx)

		s.mux.ServeHTTP(rec, req)

		pattern := req.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}

		requestsTotal.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()

		logger.Get(ctx).Debug("request served",
			"pattern", pattern,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type errorBody struct {
	Error string       `json:"error"`
	Step  wizard.Step  `json:"step,omitempty"`
	View  *wizard.View `json:"view,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Get(ctx).Warn("writing response", "error", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, into any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}

var errBadRequest = errors.New("malformed request body")
