package transport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/amp-labs/effort-economics/http/redact"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/google/uuid"
)

// NewLoggingTransport logs each request and its outcome with a UUIDv7
// correlation id. Query parameters and headers pass through redactor
// first; bodies are never logged. A nil transport uses
// http.DefaultTransport and a nil redactor uses redact.Default.
func NewLoggingTransport(transport http.RoundTripper, redactor redact.Func) http.RoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}

	if redactor == nil {
		redactor = redact.Default()
	}

	return &loggingTransport{
		transport: transport,
		redactor:  redactor,
	}
}

type loggingTransport struct {
	transport http.RoundTripper
	redactor  redact.Func
}

var _ http.RoundTripper = (*loggingTransport)(nil)

func (l *loggingTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	ctx := request.Context()

	if IsSkipLogging(ctx) {
		return l.transport.RoundTrip(request)
	}

	uuid7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("error generating UUID: %w", err)
	}

	correlationID := uuid7.String()
	log := logger.Get(ctx).With(
		"correlation_id", correlationID,
		"method", request.Method,
		"url", redact.URL(ctx, request.URL, l.redactor))

	log.DebugContext(ctx, "HTTP request",
		"headers", redact.Headers(ctx, request.Header, l.redactor))

	start := time.Now()

	response, err := l.transport.RoundTrip(request)
	if err != nil {
		log.WarnContext(ctx, "HTTP request failed",
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)

		return response, err
	}

	log.DebugContext(ctx, "HTTP response",
		"status", response.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"headers", redact.Headers(ctx, response.Header, l.redactor))

	return response, nil
}
