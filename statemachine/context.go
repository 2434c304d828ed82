package statemachine

import (
	"maps"
	"sync"
	"time"
)

// Context is the per-session state of a machine: where it is, how it got
// there, and the data its guards inspect.
type Context struct {
	mu           sync.RWMutex
	SessionID    string
	CurrentState string
	Data         map[string]any
	History      []StateTransition
	PathHistory  []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StateTransition records one completed move.
type StateTransition struct {
	From      string
	To        string
	Timestamp time.Time
}

// NewContext creates an empty context. Engine.NewContext also positions it
// on the initial state.
func NewContext(sessionID string) *Context {
	now := time.Now()

	return &Context{
		SessionID:   sessionID,
		Data:        make(map[string]any),
		History:     []StateTransition{},
		PathHistory: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// State returns the current state.
func (c *Context) State() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.CurrentState
}

// Get returns a data value.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, ok := c.Data[key]

	return val, ok
}

// Set stores a data value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Data[key] = value
	c.UpdatedAt = time.Now()
}

// Delete removes a data value.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.Data, key)
	c.UpdatedAt = time.Now()
}

// GetString returns a string data value.
func (c *Context) GetString(key string) (string, bool) {
	val, ok := c.Get(key)
	if !ok {
		return "", false
	}

	str, ok := val.(string)

	return str, ok
}

// GetBool returns a bool data value.
func (c *Context) GetBool(key string) (bool, bool) {
	val, ok := c.Get(key)
	if !ok {
		return false, false
	}

	b, ok := val.(bool)

	return b, ok
}

// Merge copies data into the context, overwriting existing keys.
func (c *Context) Merge(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	maps.Copy(c.Data, data)

	c.UpdatedAt = time.Now()
}

// Clone returns a deep copy of the bookkeeping and a shallow copy of Data.
func (c *Context) Clone() *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &Context{
		SessionID:    c.SessionID,
		CurrentState: c.CurrentState,
		Data:         make(map[string]any, len(c.Data)),
		History:      make([]StateTransition, len(c.History)),
		PathHistory:  make([]string, len(c.PathHistory)),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}

	maps.Copy(clone.Data, c.Data)
	copy(clone.History, c.History)
	copy(clone.PathHistory, c.PathHistory)

	return clone
}

func (c *Context) moveTo(from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	c.History = append(c.History, StateTransition{
		From:      from,
		To:        to,
		Timestamp: now,
	})
	c.PathHistory = append(c.PathHistory, to)
	c.CurrentState = to
	c.UpdatedAt = now
}

func (c *Context) reset(initial string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.CurrentState = initial
	c.Data = make(map[string]any)
	c.History = []StateTransition{}
	c.PathHistory = []string{initial}
	c.UpdatedAt = time.Now()
}
