package statemachine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "statemachine_transitions_total",
		Help: "Total number of transition attempts by machine, from_state, to_state and outcome",
	}, []string{"machine", "from_state", "to_state", "outcome"})

	resetTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "statemachine_resets_total",
		Help: "Total number of resets by machine and the state reset from",
	}, []string{"machine", "from_state"})

	guardDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "statemachine_guard_duration_seconds",
		Help:    "Duration of transition guard evaluation",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1},
	}, []string{"machine", "from_state", "to_state"})
)
