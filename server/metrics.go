package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// requestsTotal counts requests by route pattern and status code.
var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "http_requests_total",
	Help: "The total number of HTTP requests served, by route and status",
}, []string{"pattern", "status"})
