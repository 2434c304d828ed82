package transport

import (
	"context"
	"net/http"
)

type contextKey string

const (
	contextKeyTransport   contextKey = "http-transport"
	contextKeySkipLogging contextKey = "http-skip-logging"
)

// WithTransport makes Get return transport for this context. Tests use it
// to route outbound calls to fakes.
func WithTransport(ctx context.Context, transport http.RoundTripper) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKeyTransport, transport)
}

func getTransportFromContext(ctx context.Context) http.RoundTripper {
	if ctx == nil {
		return nil
	}

	transport, _ := ctx.Value(contextKeyTransport).(http.RoundTripper)

	return transport
}

// WithSkipLogging suppresses request logging for requests using this context.
func WithSkipLogging(ctx context.Context, skip bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKeySkipLogging, skip)
}

// IsSkipLogging reports whether WithSkipLogging(ctx, true) was applied.
func IsSkipLogging(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	skip, _ := ctx.Value(contextKeySkipLogging).(bool)

	return skip
}
