package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/amp-labs/effort-economics/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownGrace = 10 * time.Second

// Run serves the API, the metrics endpoint and the idle-session sweeper
// until ctx is cancelled, then shuts the listeners down gracefully.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	group, ctx := errgroup.WithContext(ctx)

	servers := []*http.Server{{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       baseContext(ctx),
	}}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())

		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	for _, srv := range servers {
		group.Go(func() error {
			logger.Get(ctx).Info("listening", "addr", srv.Addr)

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil
		})
	}

	if cfg.SessionTTL > 0 {
		group.Go(func() error {
			s.sessions.RunSweeper(ctx, cfg.SweepInterval, cfg.SessionTTL)

			return nil
		})
	}

	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()

		var errs []error

		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}

		s.sessions.Close()

		return errors.Join(errs...)
	})

	return group.Wait()
}

// baseContext hands request contexts the logger values of ctx without its
// cancellation, so in-flight requests finish during shutdown.
func baseContext(ctx context.Context) func(net.Listener) context.Context {
	base := context.WithoutCancel(ctx)

	return func(net.Listener) context.Context {
		return base
	}
}
