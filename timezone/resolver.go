// Package timezone turns coordinates into an IANA zone name and a fixed
// hour offset. A remote lookup is tried first; a bounding-box table covers
// every failure.
package timezone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amp-labs/effort-economics/logger"
)

// DefaultBaseURL is the public timezone-by-coordinate API.
const DefaultBaseURL = "https://timeapi.io/api"

const maxResponseBytes = 64 * 1024

var (
	ErrLookupFailed = errors.New("timezone lookup failed")
	ErrEmptyZone    = errors.New("timezone lookup returned no zone")
)

// Zone is a resolved timezone.
type Zone struct {
	Name   string  `json:"timezone"`
	Offset float64 `json:"tzOffset"`
	// Guessed is true when the bounding-box table was used.
	Guessed bool `json:"-"`
}

// Resolver looks up the zone of a coordinate.
type Resolver struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	rules   []BoxRule
	offsets []ZoneOffset
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseURL points the resolver at another API root.
func WithBaseURL(base string) Option {
	return func(r *Resolver) {
		r.baseURL = strings.TrimRight(base, "/")
	}
}

// WithTimeout bounds a single remote lookup. Zero means no extra bound.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = timeout
	}
}

// WithRules replaces the bounding-box table.
func WithRules(rules ...BoxRule) Option {
	return func(r *Resolver) {
		r.rules = rules
	}
}

// WithOffsets replaces the zone offset table.
func WithOffsets(offsets ...ZoneOffset) Option {
	return func(r *Resolver) {
		r.offsets = offsets
	}
}

// NewResolver creates a Resolver. A nil client uses http.DefaultClient.
func NewResolver(client *http.Client, opts ...Option) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}

	r := &Resolver{
		client:  client,
		baseURL: DefaultBaseURL,
		rules:   DefaultRules(),
		offsets: DefaultOffsets(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve never fails: a failed remote lookup falls back to the
// bounding-box guess.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) Zone {
	name, err := r.lookup(ctx, lat, lon)
	if err == nil {
		return Zone{Name: name, Offset: r.Offset(name)}
	}

	name = guess(r.rules, lat, lon)

	logger.Get(ctx).Debug("timezone lookup failed, using bounding box",
		"error", err, "zone", name)

	lookupsTotal.WithLabelValues("guessed").Inc()

	return Zone{Name: name, Offset: r.Offset(name), Guessed: true}
}

// Offset returns the hour offset of zone from the resolver's table.
func (r *Resolver) Offset(zone string) float64 {
	return offset(r.offsets, zone)
}

// Guess consults only the bounding-box table.
func (r *Resolver) Guess(lat, lon float64) string {
	return guess(r.rules, lat, lon)
}

type coordinateResponse struct {
	TimeZone string `json:"timeZone"`
}

func (r *Resolver) lookup(ctx context.Context, lat, lon float64) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))

	endpoint := r.baseURL + "/TimeZone/coordinate?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var body coordinateResponse

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decoding: %w", ErrLookupFailed, err)
	}

	zone := strings.TrimSpace(body.TimeZone)
	if zone == "" {
		return "", ErrEmptyZone
	}

	lookupsTotal.WithLabelValues("remote").Inc()

	return zone, nil
}
