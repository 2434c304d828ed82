package geocode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookupsTotal counts geocoder calls.
	//   - mode: suggest or verify
	//   - outcome: found, not_found or error
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "geocode_lookups_total",
		Help: "The total number of geocoder lookups",
	}, []string{"mode", "outcome"})

	lookupTime = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "geocode_lookup_time_millis",
		Help:    "The time a geocoder lookup takes, in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"mode"})
)

const (
	modeSuggest = "suggest"
	modeVerify  = "verify"

	outcomeFound    = "found"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)
