package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/amp-labs/effort-economics/calc"
	"github.com/amp-labs/effort-economics/geocode"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/amp-labs/effort-economics/report"
	"github.com/amp-labs/effort-economics/resultstore"
	"github.com/amp-labs/effort-economics/validators"
	"github.com/amp-labs/effort-economics/wizard"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, session *wizard.Session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessions.Get(r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, nil, err)

			return
		}

		r = r.WithContext(logger.WithSessionId(r.Context(), session.ID()))

		h(w, r, session)
	}
}

// writeError maps err to a status code. User input problems carry the
// product copy and the step the person is on.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, session *wizard.Session, err error) {
	status := statusOf(err)

	body := errorBody{Error: wizard.Message(err)}
	if body.Error == "" {
		body.Error = err.Error()
	}

	if status == http.StatusInternalServerError {
		logger.Get(r.Context()).Error("request failed", "error", err)

		body.Error = "internal error"
	}

	if session != nil {
		view := session.View()
		body.View = &view
		body.Step = view.Step
	}

	writeJSON(r.Context(), w, status, body)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, wizard.ErrSessionNotFound), errors.Is(err, resultstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, calc.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, wizard.ErrVerificationInFlight),
		errors.Is(err, wizard.ErrSubmissionInFlight),
		errors.Is(err, wizard.ErrLocationChanged),
		wizard.IsOutOfOrder(err):
		return http.StatusConflict
	case validators.Message(err) != "",
		errors.Is(err, calc.ErrInvalidVote),
		errors.Is(err, calc.ErrValidationRejected),
		errors.Is(err, wizard.ErrMissingLocation),
		errors.Is(err, wizard.ErrLocationNotVerified),
		errors.Is(err, geocode.ErrLocationNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, calc.ErrServiceError), errors.Is(err, calc.ErrNetworkError),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Create(r.Context())

	writeJSON(r.Context(), w, http.StatusCreated, session.View())
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, session *wizard.Session) {
	writeJSON(r.Context(), w, http.StatusOK, session.View())
}

func (s *Server) submitIdentity(w http.ResponseWriter, r *http.Request, session *wizard.Session) {
	var input validators.IdentityInput

	if err := decode(w, r, &input); err != nil {
		s.writeError(w, r, session, err)

		return
	}

	if err := session.SubmitIdentity(r.Context(), input); err != nil {
		s.writeError(w, r, session, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, session.View())
}

type birthTimeRequest struct {
	Time string `json:"time"`
}

func (s *Server) blurBirthTime(w http.ResponseWriter, r *http.Request, session *wizard.Session) {
	var req birthTimeRequest

	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, session, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, birthTimeRequest{Time: session.BlurBirthTime(req.Time)})
}

func (s *Server) submitBirth(w http.ResponseWriter, r *http.Request, session *wizard.Session) {
	var input validators.BirthInput

	if err := decode(w, r, &input); err != nil {
		s.writeError(w, r, session, err)

		return
	}

	if err := session.SubmitBirth(r.Context(), input); err != nil {
		s.writeError(w, r, session, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, session.View())
}

type locationRequest struct {
	Country    *string `json:"country"`
	PostalCode *string `json:"pincode"`
	City       *string `json:"city"`
}

func (s *Server) editLocation(w http.ResponseWriter, r *http.Request, session *wizard.Session) {
	var req locationRequest

	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, session, err)

		return
	}

	ctx := r.Context()

	edits := []struct {
		value *string
		apply func(context.Context, string) error
	}{
		{req.Country, session.EditCountry},
		{req.PostalCode, session.EditPostalCode},
		{req.City, session.EditCity},
	}

	for _, e := range edits {
		if e.value == nil {
			continue
		}

		if err := e.apply(ctx, *e.value); err != nil {
			s.writeError(w, r, session, err)

			return
		}
	}

	writeJSON(ctx, w, http.StatusOK, session.View())
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request, session *wizard.Session) {
	if _, err := session.Verify(r.Context()); err != nil {
		s.writeError(w, r, session, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, session.View())
}

type submitResponse struct {
	ResultID string `json:"resultId"`
	Location string `json:"location"`
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, session *wizard.Session) {
	id, err := session.Submit(r.Context())
	if err != nil {
		s.writeError(w, r, session, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, submitResponse{ResultID: id, Location: "/results/" + id})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request, session *wizard.Session) {
	if err := session.Reset(r.Context()); err != nil {
		s.writeError(w, r, session, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, session.View())
}

func (s *Server) loadDocument(ctx context.Context, id string) (*report.Document, error) {
	doc, err := report.Load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	usageCtx, cancel := context.WithTimeout(ctx, usageTimeout)
	defer cancel()

	count, err := s.remote.Usage(usageCtx)
	if err != nil {
		logger.Get(ctx).Debug("usage count unavailable", "error", err)
	}

	doc.Usage = count

	return doc, nil
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, nil, resultError(err))

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, doc)
}

func (s *Server) resultPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	doc, err := s.loadDocument(r.Context(), id)
	if err != nil {
		if errors.Is(resultError(err), resultstore.ErrNotFound) {
			http.Redirect(w, r, "/", http.StatusSeeOther)

			return
		}

		s.writeError(w, r, nil, err)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := report.RenderHTML(w, doc, report.HTMLOptions{
		FeedbackURL:       "/api/feedback",
		NewCalculationURL: "/api/results/" + id,
	}); err != nil {
		logger.Get(r.Context()).Warn("rendering result page", "error", err)
	}
}

func (s *Server) clearResult(w http.ResponseWriter, r *http.Request) {
	if err := resultstore.Clear(r.Context(), s.store, r.PathValue("id")); err != nil {
		s.writeError(w, r, nil, resultError(err))

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resultError treats a malformed id as a missing result.
func resultError(err error) error {
	if errors.Is(err, resultstore.ErrInvalidScope) {
		return errors.Join(err, resultstore.ErrNotFound)
	}

	return err
}

type usageResponse struct {
	Count int    `json:"count"`
	Line  string `json:"line,omitempty"`
}

func (s *Server) usage(w http.ResponseWriter, r *http.Request) {
	count, err := s.remote.Usage(r.Context())
	if err != nil {
		s.writeError(w, r, nil, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, usageResponse{Count: count, Line: report.UsageLine(count)})
}

type feedbackRequest struct {
	Vote calc.Vote `json:"vote"`
}

func (s *Server) feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest

	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, nil, err)

		return
	}

	req.Vote = calc.Vote(strings.ToLower(string(req.Vote)))

	if err := s.remote.FeedbackAsync(r.Context(), req.Vote); err != nil {
		s.writeError(w, r, nil, err)

		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
