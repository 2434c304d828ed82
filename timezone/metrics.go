package timezone

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// lookupsTotal counts resolutions by source (remote or guessed).
var lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "timezone_resolutions_total",
	Help: "The total number of timezone resolutions, by source",
}, []string{"source"})
