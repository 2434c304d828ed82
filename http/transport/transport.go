// Package transport builds the http.RoundTripper used for every outbound
// call: geocoding, timezone lookup and the calculation API.
package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/amp-labs/effort-economics/envutil"
)

// settings are the HTTP_TRANSPORT_* knobs.
type settings struct {
	maxIdleConns          int
	maxConnsPerHost       int
	idleConnTimeout       time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration
	expectContinueTimeout time.Duration
	dialTimeout           time.Duration
	keepAlive             time.Duration
	disableHTTP2          bool
}

// The public geocoder allows about one request per second per client, so
// few connections per host are ever useful.
const (
	defaultMaxIdleConns    = 32
	defaultMaxConnsPerHost = 4
	defaultIdleConnTimeout = 90 * time.Second
	defaultTLSTimeout      = 10 * time.Second
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
)

func loadSettings(ctx context.Context) settings {
	duration := func(key string, dflt time.Duration) time.Duration {
		return envutil.Duration(ctx, key, envutil.Default(dflt)).ValueOrElse(dflt)
	}

	count := func(key string, dflt int) int {
		return envutil.Int(ctx, key, envutil.Default(dflt)).ValueOrElse(dflt)
	}

	return settings{
		maxIdleConns:          count("HTTP_TRANSPORT_MAX_IDLE_CONNS", defaultMaxIdleConns),
		maxConnsPerHost:       count("HTTP_TRANSPORT_MAX_CONNS_PER_HOST", defaultMaxConnsPerHost),
		idleConnTimeout:       duration("HTTP_TRANSPORT_IDLE_CONN_TIMEOUT", defaultIdleConnTimeout),
		tlsHandshakeTimeout:   duration("HTTP_TRANSPORT_TLS_HANDSHAKE_TIMEOUT", defaultTLSTimeout),
		responseHeaderTimeout: duration("HTTP_TRANSPORT_RESPONSE_HEADER_TIMEOUT", 0),
		expectContinueTimeout: duration("HTTP_TRANSPORT_EXPECT_CONTINUE_TIMEOUT", time.Second),
		dialTimeout:           duration("HTTP_TRANSPORT_DIAL_TIMEOUT", defaultDialTimeout),
		keepAlive:             duration("HTTP_TRANSPORT_DIAL_KEEPALIVE", defaultKeepAlive),
		disableHTTP2:          envutil.Bool(ctx, "HTTP_TRANSPORT_DISABLE_HTTP2", envutil.Default(true)).ValueOrElse(true),
	}
}

// New creates a fresh *http.Transport. Prefer Get, which shares instances.
func New(ctx context.Context, options ...Option) *http.Transport {
	return create(ctx, readOptions(ctx, options...))
}

func create(ctx context.Context, cfg *config) *http.Transport {
	set := loadSettings(ctx)

	dialer := &net.Dialer{
		Timeout:   set.dialTimeout,
		KeepAlive: set.keepAlive,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          set.maxIdleConns,
		MaxIdleConnsPerHost:   set.maxConnsPerHost,
		MaxConnsPerHost:       set.maxConnsPerHost,
		IdleConnTimeout:       set.idleConnTimeout,
		TLSHandshakeTimeout:   set.tlsHandshakeTimeout,
		ResponseHeaderTimeout: set.responseHeaderTimeout,
		ExpectContinueTimeout: set.expectContinueTimeout,
		DisableCompression:    cfg.DisableCompression,
		DisableKeepAlives:     cfg.DisableConnectionPooling,
	}

	if set.disableHTTP2 {
		transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	}

	if cfg.EnableDNSCache {
		transport.DialContext = (&cachedDialer{dialer: dialer, resolver: dnsResolver}).DialContext
	}

	return transport
}

// Get returns a shared round tripper for the given options. A transport
// stored in the context with WithTransport wins over everything else.
func Get(ctx context.Context, opts ...Option) http.RoundTripper {
	if tr := getTransportFromContext(ctx); tr != nil {
		return tr
	}

	return getTransportInstance(ctx, readOptions(ctx, opts...))
}
