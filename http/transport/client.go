package transport

import (
	"context"
	"net/http"
	"time"
)

// NewClient returns an *http.Client over the shared transport with
// enhanced decompression, request logging and an overall timeout.
func NewClient(ctx context.Context, timeout time.Duration, opts ...Option) *http.Client {
	opts = append([]Option{EnableEnhancedDecompression}, opts...)

	return &http.Client{
		Transport: NewLoggingTransport(Get(ctx, opts...), nil),
		Timeout:   timeout,
	}
}
