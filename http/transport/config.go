package transport

import (
	"context"
	"net/http"

	"github.com/amp-labs/effort-economics/envutil"
)

// Option configures the transport returned by New or Get.
type Option func(*config)

type config struct {
	TransportOverrides          []http.RoundTripper
	DisableConnectionPooling    bool
	EnableDNSCache              bool
	DisableCompression          bool
	EnableEnhancedDecompression bool
}

// flags is the comparable part of config, used to share instances.
type flags struct {
	disableConnectionPooling    bool
	enableDNSCache              bool
	disableCompression          bool
	enableEnhancedDecompression bool
}

func (c *config) flags() flags {
	return flags{
		disableConnectionPooling:    c.DisableConnectionPooling,
		enableDNSCache:              c.EnableDNSCache,
		disableCompression:          c.DisableCompression,
		enableEnhancedDecompression: c.EnableEnhancedDecompression,
	}
}

// DisableConnectionPooling turns off keep-alives.
func DisableConnectionPooling(c *config) {
	c.DisableConnectionPooling = true
}

// EnableDNSCache resolves hosts through a shared in-process DNS cache.
func EnableDNSCache(c *config) {
	c.EnableDNSCache = true
}

// DisableDNSCache overrides HTTP_TRANSPORT_ENABLE_DNS_CACHE.
func DisableDNSCache(c *config) {
	c.EnableDNSCache = false
}

// DisableCompression stops net/http from requesting gzip on its own.
func DisableCompression(c *config) {
	c.DisableCompression = true
}

// EnableEnhancedDecompression decodes any Content-Encoding the upstream
// chooses (gzip, deflate, br, zstd, snappy, lz4).
func EnableEnhancedDecompression(c *config) {
	c.EnableEnhancedDecompression = true
}

// WithTransportOverride short-circuits Get with the first non-nil transport.
func WithTransportOverride(transport ...http.RoundTripper) Option {
	return func(c *config) {
		c.TransportOverrides = append(c.TransportOverrides, transport...)
	}
}

func readOptions(ctx context.Context, opts ...Option) *config {
	cfg := &config{
		DisableConnectionPooling: !envutil.Bool(ctx, "HTTP_TRANSPORT_PREFER_POOLED",
			envutil.Default(true)).ValueOrElse(true),
		EnableDNSCache: envutil.Bool(ctx, "HTTP_TRANSPORT_ENABLE_DNS_CACHE",
			envutil.Default(true)).ValueOrElse(true),
	}

	for _, c := range opts {
		if c != nil {
			c(cfg)
		}
	}

	return cfg
}
