package transport

import (
	"fmt"
	"net/http"

	"github.com/amp-labs/effort-economics/errors"
)

// NewCustom adapts a function to http.RoundTripper. A nil function fails
// every request with errors.ErrNotImplemented.
func NewCustom(roundTrip func(req *http.Request) (*http.Response, error)) http.RoundTripper {
	if roundTrip == nil {
		roundTrip = func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("%w: RoundTrip", errors.ErrNotImplemented)
		}
	}

	return &customTransport{
		roundTrip: roundTrip,
	}
}

type customTransport struct {
	roundTrip func(req *http.Request) (*http.Response, error)
}

var _ http.RoundTripper = (*customTransport)(nil)

func (c *customTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	return c.roundTrip(request)
}
