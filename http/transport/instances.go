package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/amp-labs/effort-economics/lazy"
)

// instances holds one lazily built transport per option set.
var instances = map[flags]*lazy.OfCtx[http.RoundTripper]{} //nolint:gochecknoglobals

var instancesMu sync.Mutex //nolint:gochecknoglobals

func getTransportInstance(ctx context.Context, cfg *config) http.RoundTripper {
	for _, tr := range cfg.TransportOverrides {
		if tr != nil {
			return tr
		}
	}

	key := cfg.flags()

	instancesMu.Lock()

	inst, ok := instances[key]
	if !ok {
		inst = lazy.NewCtx[http.RoundTripper](func(ctx context.Context) http.RoundTripper {
			var rt http.RoundTripper = create(ctx, &config{
				DisableConnectionPooling: key.disableConnectionPooling,
				EnableDNSCache:           key.enableDNSCache,
				DisableCompression:       key.disableCompression,
			})

			if key.enableEnhancedDecompression {
				rt = NewDecompressor(rt)
			}

			return rt
		})

		instances[key] = inst
	}

	instancesMu.Unlock()

	return inst.Get(ctx)
}
