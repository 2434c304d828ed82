package resultstore

import (
	"context"
	"fmt"

	"github.com/amp-labs/effort-economics/envutil"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/amp-labs/effort-economics/stage"
)

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

// Open builds the store selected by RESULT_STORE (memory or sqlite). The
// SQLite file comes from RESULT_STORE_PATH.
func Open(ctx context.Context) (Store, error) {
	kind, err := envutil.String(ctx, "RESULT_STORE",
		envutil.Default(KindMemory), envutil.OneOf(KindMemory, KindSQLite)).Value()
	if err != nil {
		return nil, err
	}

	if kind == KindMemory {
		if st, _ := stage.Current(ctx); st.IsDeployed() {
			logger.Get(ctx).Warn("in-memory result store loses results on restart", "stage", st)
		} else {
			logger.Get(ctx).Info("using in-memory result store")
		}

		return NewMemory(), nil
	}

	path := envutil.String(ctx, "RESULT_STORE_PATH", envutil.Default("effort.db")).ValueOrElse("effort.db")

	store, err := OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening result store %s: %w", path, err)
	}

	logger.Get(ctx).Info("using sqlite result store", "path", path)

	return store, nil
}
