package server

import (
	"context"
	"time"

	"github.com/amp-labs/effort-economics/envutil"
)

// Config holds the listener settings.
type Config struct {
	ListenAddr    string
	MetricsAddr   string
	SessionTTL    time.Duration
	SweepInterval time.Duration
}

// LoadConfig reads LISTEN_ADDR, METRICS_ADDR and SESSION_IDLE_TTL. An
// empty METRICS_ADDR disables the metrics listener.
func LoadConfig(ctx context.Context) (Config, error) {
	listen, err := envutil.String(ctx, "LISTEN_ADDR", envutil.Default(":8080")).Value()
	if err != nil {
		return Config{}, err
	}

	metrics := envutil.String(ctx, "METRICS_ADDR", envutil.Default(":9090")).ValueOrElse(":9090")

	ttl, err := envutil.Duration(ctx, "SESSION_IDLE_TTL", envutil.Default(30*time.Minute)).Value()
	if err != nil {
		return Config{}, err
	}

	return Config{
		ListenAddr:    listen,
		MetricsAddr:   metrics,
		SessionTTL:    ttl,
		SweepInterval: max(ttl/10, time.Second),
	}, nil
}
