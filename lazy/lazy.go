// Package lazy holds values that are built on first use and shared afterwards.
package lazy

import (
	"context"
	"sync"
	"sync/atomic"
)

// Of is a lazy value that is initialized at most once.
type Of[T any] struct {
	create      func() T
	once        sync.Once
	value       T
	initialized atomic.Bool
}

// New creates a lazy value. The callback runs on the first Get.
func New[T any](f func() T) *Of[T] {
	return &Of[T]{create: f}
}

// Get returns the value, initializing it if necessary.
func (t *Of[T]) Get() T { //nolint:ireturn
	t.once.Do(func() {
		if t.create != nil {
			t.value = t.create()
			t.create = nil
		}

		t.initialized.Store(true)
	})

	return t.value
}

// Initialized reports whether Get has completed at least once.
func (t *Of[T]) Initialized() bool {
	return t.initialized.Load()
}

// OfCtx is like Of, but the constructor receives the context of the first
// caller. Later callers get the same value regardless of their context.
type OfCtx[T any] struct {
	create func(ctx context.Context) T
	once   sync.Once
	value  T
}

// NewCtx creates a context-aware lazy value.
func NewCtx[T any](f func(ctx context.Context) T) *OfCtx[T] {
	return &OfCtx[T]{create: f}
}

// Get returns the value, initializing it with ctx if necessary.
func (t *OfCtx[T]) Get(ctx context.Context) T { //nolint:ireturn
	t.once.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}

		t.value = t.create(ctx)
		t.create = nil
	})

	return t.value
}
