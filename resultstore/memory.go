package resultstore

import (
	"context"
	"slices"
	"sync"
)

// Memory is a Store held in process memory.
type Memory struct {
	mut     sync.RWMutex
	entries map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mut.RLock()
	defer m.mut.RUnlock()

	val, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	return slices.Clone(val), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mut.Lock()
	defer m.mut.Unlock()

	m.entries[key] = slices.Clone(value)

	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mut.Lock()
	defer m.mut.Unlock()

	if _, ok := m.entries[key]; !ok {
		return ErrNotFound
	}

	delete(m.entries, key)

	return nil
}

func (m *Memory) Close() error {
	return nil
}
