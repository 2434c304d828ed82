// Package resultstore keeps calculation results between the wizard and the
// result view. Entries are opaque JSON blobs under well-known keys,
// namespaced by a scope (one per finished wizard session).
package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	commonErrors "github.com/amp-labs/effort-economics/errors"
)

// Well-known entry names.
const (
	ResultKey = "effortResult"
	MetaKey   = "effortMeta"
)

var (
	ErrNotFound     = errors.New("entry not found")
	ErrInvalidScope = errors.New("invalid scope")
)

// Store is a minimal byte-oriented key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key namespaces name under scope, e.g. "0192.../effortResult".
func Key(scope, name string) string {
	return scope + "/" + name
}

func checkScope(scope string) error {
	if strings.TrimSpace(scope) == "" || strings.Contains(scope, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	return nil
}

// Save writes the result and, when meta is non-nil, the metadata. A nil
// meta removes any stale metadata under the scope. If the metadata step
// fails the result is removed again so no half-written scope remains.
func Save(ctx context.Context, store Store, scope string, result any, meta any) error {
	if err := checkScope(scope); err != nil {
		return err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if err := store.Put(ctx, Key(scope, ResultKey), resultBytes); err != nil {
		return fmt.Errorf("saving result: %w", err)
	}

	if err := saveMeta(ctx, store, scope, meta); err != nil {
		errs := commonErrors.Collection{}
		errs.Add(err)

		if delErr := store.Delete(ctx, Key(scope, ResultKey)); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			errs.Add(fmt.Errorf("removing result: %w", delErr))
		}

		return errs.GetError()
	}

	return nil
}

func saveMeta(ctx context.Context, store Store, scope string, meta any) error {
	if meta == nil {
		if err := store.Delete(ctx, Key(scope, MetaKey)); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("clearing metadata: %w", err)
		}

		return nil
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	if err := store.Put(ctx, Key(scope, MetaKey), metaBytes); err != nil {
		return fmt.Errorf("saving metadata: %w", err)
	}

	return nil
}

// Load returns the raw result and metadata. A missing result is
// ErrNotFound; missing metadata is returned as nil.
func Load(ctx context.Context, store Store, scope string) ([]byte, []byte, error) {
	if err := checkScope(scope); err != nil {
		return nil, nil, err
	}

	result, err := store.Get(ctx, Key(scope, ResultKey))
	if err != nil {
		return nil, nil, err
	}

	meta, err := store.Get(ctx, Key(scope, MetaKey))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}

	return result, meta, nil
}

// Clear deletes both entries, attempting each even if the other fails.
// Clearing an empty scope is not an error.
func Clear(ctx context.Context, store Store, scope string) error {
	if err := checkScope(scope); err != nil {
		return err
	}

	errs := commonErrors.Collection{}

	for _, name := range []string{ResultKey, MetaKey} {
		if err := store.Delete(ctx, Key(scope, name)); err != nil && !errors.Is(err, ErrNotFound) {
			errs.Add(fmt.Errorf("deleting %s: %w", name, err))
		}
	}

	return errs.GetError()
}
