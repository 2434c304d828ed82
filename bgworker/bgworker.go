// Package bgworker runs fire-and-forget work, such as feedback votes, on a
// bounded pool that drains on shutdown.
package bgworker

import (
	"context"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/effort-economics/envutil"
	"github.com/amp-labs/effort-economics/lazy"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/amp-labs/effort-economics/shutdown"
)

const defaultWorkerCount = 10

var workerPool = lazy.NewCtx[pond.Pool](func(ctx context.Context) pond.Pool { //nolint:gochecknoglobals
	count := envutil.Int(ctx, "BACKGROUND_WORKER_COUNT",
		envutil.Default(defaultWorkerCount)).ValueOrElse(defaultWorkerCount)

	logger.Get(ctx).Debug("Initializing background worker pool", "count", count)

	pool := pond.NewPool(count)

	shutdown.BeforeShutdown(func() {
		logger.Get(ctx).Debug("Stopping background worker pool")
		pool.StopAndWait()
		logger.Get(ctx).Debug("Background worker pool stopped")
	})

	return pool
})

// Submit runs f on the pool and returns a task to wait on.
func Submit(ctx context.Context, f func()) pond.Task { //nolint:ireturn
	return workerPool.Get(ctx).Submit(f)
}

// Go runs f on the pool. It returns an error if the pool is stopped.
func Go(ctx context.Context, f func()) error {
	return workerPool.Get(ctx).Go(f)
}

// GoErr runs f on the pool with a context detached from ctx's
// cancellation, and logs a non-nil result. name labels the log line.
func GoErr(ctx context.Context, name string, f func(ctx context.Context) error) error {
	bg := context.WithoutCancel(ctx)

	return Go(ctx, func() {
		if err := f(bg); err != nil {
			logger.Get(bg).Warn("background task failed", "task", name, "error", err)
		}
	})
}
