package debounce

import (
	"sort"
	"sync"
	"time"
)

// ManualClock is a Clock driven by Advance. Due functions run
// synchronously on the goroutine calling Advance.
type ManualClock struct {
	mut    sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *ManualClock
	at      time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mut.Lock()
	defer t.clock.mut.Unlock()

	wasActive := !t.stopped
	t.stopped = true

	return wasActive
}

// NewManualClock creates a clock at time zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mut.Lock()
	defer c.mut.Unlock()

	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)

	return t
}

// Advance moves the clock forward and runs every timer that became due, in
// order of their deadlines.
func (c *ManualClock) Advance(d time.Duration) {
	c.mut.Lock()
	c.now += d

	var due []*manualTimer

	remaining := c.timers[:0]

	for _, t := range c.timers {
		switch {
		case t.stopped:
		case t.at <= c.now:
			t.stopped = true
			due = append(due, t)
		default:
			remaining = append(remaining, t)
		}
	}

	c.timers = remaining
	c.mut.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })

	for _, t := range due {
		t.f()
	}
}

// Active returns the number of timers that have neither fired nor been
// stopped.
func (c *ManualClock) Active() int {
	c.mut.Lock()
	defer c.mut.Unlock()

	n := 0

	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}

	return n
}
