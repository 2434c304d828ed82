package transport

import (
	"errors"
	"io"
	"net/http"

	"github.com/fereidani/httpdecompressor"
)

// NewDecompressor wraps a round tripper so that response bodies are
// transparently decoded according to Content-Encoding. It panics on a nil
// round tripper.
func NewDecompressor(roundTripper http.RoundTripper) http.RoundTripper {
	if roundTripper == nil {
		panic("NewDecompressor: roundTripper is nil")
	}

	return &decompressor{
		roundTripper: roundTripper,
	}
}

type decompressor struct {
	roundTripper http.RoundTripper
}

var _ http.RoundTripper = (*decompressor)(nil)

func (d *decompressor) RoundTrip(request *http.Request) (*http.Response, error) {
	rsp, err := d.roundTripper.RoundTrip(request)
	if err != nil {
		return rsp, err
	}

	origBody := rsp.Body

	bodyReader, err := httpdecompressor.Reader(rsp)
	if err != nil {
		_ = origBody.Close()

		return nil, err
	}

	if bodyReader == origBody {
		return rsp, nil
	}

	rsp.Body = &decodedBody{
		Reader:  bodyReader,
		decoder: bodyReader,
		body:    origBody,
	}
	rsp.Header.Del("Content-Encoding")
	rsp.Header.Del("Content-Length")
	rsp.ContentLength = -1
	rsp.Uncompressed = true

	return rsp, nil
}

// decodedBody closes the decoder first, then the underlying body.
type decodedBody struct {
	io.Reader

	decoder io.ReadCloser
	body    io.ReadCloser
}

func (d *decodedBody) Close() error {
	return errors.Join(d.decoder.Close(), d.body.Close())
}
