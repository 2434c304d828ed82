// Package debounce delays a call until its trigger has been quiet for a
// fixed wait. Scheduling again replaces the pending call.
package debounce

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// DefaultWait is the quiet period used when none is given.
const DefaultWait = 1000 * time.Millisecond

// Timer is the part of *time.Timer the debouncer uses.
type Timer interface {
	Stop() bool
}

// Clock schedules functions. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is backed by time.AfterFunc.
var RealClock Clock = realClock{} //nolint:gochecknoglobals

// Debouncer runs at most one pending call. It is safe for concurrent use.
type Debouncer struct {
	wait  time.Duration
	clock Clock

	mut     sync.Mutex
	timer   Timer
	stopped bool

	// generation invalidates timers that fired after being replaced.
	generation atomic.Uint64
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock replaces the real clock.
func WithClock(clock Clock) Option {
	return func(d *Debouncer) {
		d.clock = clock
	}
}

// New creates a Debouncer. A non-positive wait uses DefaultWait.
func New(wait time.Duration, opts ...Option) *Debouncer {
	if wait <= 0 {
		wait = DefaultWait
	}

	d := &Debouncer{
		wait:  wait,
		clock: RealClock,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Wait returns the quiet period.
func (d *Debouncer) Wait() time.Duration {
	return d.wait
}

// Schedule replaces any pending call with f. After Stop it is a no-op.
func (d *Debouncer) Schedule(f func()) {
	d.mut.Lock()
	defer d.mut.Unlock()

	if d.stopped {
		return
	}

	d.stopLocked()

	gen := d.generation.Inc()

	d.timer = d.clock.AfterFunc(d.wait, func() {
		d.mut.Lock()

		if d.generation.Load() != gen || d.stopped {
			d.mut.Unlock()

			return
		}

		d.timer = nil
		d.mut.Unlock()

		f()
	})
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mut.Lock()
	defer d.mut.Unlock()

	d.stopLocked()
}

// Stop cancels the pending call and refuses further scheduling.
func (d *Debouncer) Stop() {
	d.mut.Lock()
	defer d.mut.Unlock()

	d.stopLocked()
	d.stopped = true
}

// Pending reports whether a call is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mut.Lock()
	defer d.mut.Unlock()

	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	d.generation.Inc()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
