package calc

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// submissionsTotal counts calculation requests by outcome.
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "calculation_submissions_total",
		Help: "The total number of calculation submissions, by outcome",
	}, []string{"outcome"})

	submissionTime = promauto.NewHistogram(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "calculation_submission_time_millis",
		Help:    "The time a calculation request takes, in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000, 30000},
	})

	feedbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "calculation_feedback_total",
		Help: "The total number of feedback votes sent, by vote and result",
	}, []string{"vote", "ok"})
)

func outcomeLabel(err error) string {
	var ce *Error

	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ce) && ce.Kind == ErrRateLimited:
		return "rate_limited"
	case errors.As(err, &ce) && ce.Kind == ErrValidationRejected:
		return "rejected"
	case errors.As(err, &ce) && ce.Kind == ErrServiceError:
		return "service_error"
	default:
		return "network_error"
	}
}
