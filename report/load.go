package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amp-labs/effort-economics/resultstore"
)

// Document is everything the result view shows.
type Document struct {
	ID     string         `json:"id"`
	Result Result         `json:"result"`
	Meta   map[string]any `json:"meta,omitempty"`
	// Usage is the number of people who have used the product. Zero hides
	// the usage line.
	Usage int `json:"usage,omitempty"`
}

// Load reads the result stored under scope. A missing result is
// resultstore.ErrNotFound.
func Load(ctx context.Context, store resultstore.Store, scope string) (*Document, error) {
	rawResult, rawMeta, err := resultstore.Load(ctx, store, scope)
	if err != nil {
		return nil, err
	}

	doc := &Document{ID: scope}

	if err := json.Unmarshal(rawResult, &doc.Result); err != nil {
		return nil, fmt.Errorf("decoding result %s: %w", scope, err)
	}

	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &doc.Meta); err != nil {
			return nil, fmt.Errorf("decoding metadata %s: %w", scope, err)
		}
	}

	return doc, nil
}
