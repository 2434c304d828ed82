package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/amp-labs/effort-economics/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{ //nolint:gochecknoglobals
	Name: "wizard_active_sessions",
	Help: "The number of wizard sessions held in memory",
})

// Manager holds the live sessions of a server.
type Manager struct {
	deps Deps
	opts []Option
	now  func() time.Time

	mut      sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager whose sessions share deps and opts. The
// sweeper uses the clock given with WithClock.
func NewManager(deps Deps, opts ...Option) *Manager {
	cfg := settings{now: time.Now}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Manager{
		deps:     deps,
		opts:     opts,
		now:      cfg.now,
		sessions: make(map[string]*Session),
	}
}

// Create starts and registers a new session.
func (m *Manager) Create(ctx context.Context) *Session {
	s := New(m.deps, m.opts...)

	m.mut.Lock()
	m.sessions[s.ID()] = s
	m.mut.Unlock()

	activeSessions.Inc()

	logger.Get(logger.WithSessionId(ctx, s.ID())).Debug("session created")

	return s
}

// Get returns a live session or ErrSessionNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mut.Lock()
	defer m.mut.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return s, nil
}

// Delete closes and forgets a session.
func (m *Manager) Delete(id string) {
	m.mut.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mut.Unlock()

	if ok {
		s.Close()
		activeSessions.Dec()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mut.Lock()
	defer m.mut.Unlock()

	return len(m.sessions)
}

// Sweep removes sessions idle for longer than ttl and returns how many it
// removed.
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	var idle []string

	m.mut.Lock()

	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, id)
		}
	}

	m.mut.Unlock()

	for _, id := range idle {
		m.Delete(id)
	}

	return len(idle)
}

// RunSweeper sweeps every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(ttl); n > 0 {
				logger.Get(ctx).Debug("swept idle sessions", "count", n)
			}
		}
	}
}

// Close closes every session.
func (m *Manager) Close() {
	m.mut.Lock()
	ids := make([]string, 0, len(m.sessions))

	for id := range m.sessions {
		ids = append(ids, id)
	}

	m.mut.Unlock()

	for _, id := range ids {
		m.Delete(id)
	}
}
