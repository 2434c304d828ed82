// Package geocode talks to a Nominatim-compatible search API. It suggests a
// city and country for a postal code and verifies a full location into
// coordinates and a timezone.
package geocode

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
	"github.com/amp-labs/effort-economics/timezone"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "EffortEconomics/1.0"

	// MinSuggestLength is the shortest postal code worth a suggestion lookup.
	MinSuggestLength = 5

	maxResponseBytes = 1 << 20
)

var (
	ErrMissingInput     = errors.New("country, postal code and city are required")
	ErrLocationNotFound = errors.New("location not found")
	ErrUnexpectedStatus = errors.New("unexpected geocoder status")
)

// NotFoundMessage is shown when Verify fails for any reason.
const NotFoundMessage = "Could not find location. Please check pin code and city."

// Suggestion is a best-effort completion for a postal code. Either field
// may be empty.
type Suggestion struct {
	City        string `json:"city,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

// Result is a verified location.
type Result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
	Timezone    string  `json:"timezone"`
	TzOffset    float64 `json:"tzOffset"`
}

// ZoneResolver turns coordinates into a zone. *timezone.Resolver satisfies it.
type ZoneResolver interface {
	Resolve(ctx context.Context, lat, lon float64) timezone.Zone
}

// Client is a geocoder. It never retries.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
	zones     ZoneResolver
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithUserAgent overrides the User-Agent header Nominatim requires.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithZoneResolver overrides the timezone resolver used by Verify.
func WithZoneResolver(zones ZoneResolver) Option {
	return func(c *Client) {
		c.zones = zones
	}
}

// New creates a Client. A nil http client uses http.DefaultClient; the
// default zone resolver shares it.
func New(client *http.Client, opts ...Option) *Client {
	if client == nil {
		client = http.DefaultClient
	}

	c := &Client{
		client:    client,
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.zones == nil {
		c.zones = timezone.NewResolver(client)
	}

	return c
}

type place struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Address     address `json:"address"`
}

type address struct {
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	County      string `json:"county"`
	CountryCode string `json:"country_code"`
}

func (a address) locality() string {
	for _, s := range []string{a.City, a.Town, a.Village, a.County} {
		if s != "" {
			return s
		}
	}

	return ""
}

// Suggest looks up a postal code. It returns false for short codes, empty
// results and every failure; errors are only logged.
func (c *Client) Suggest(ctx context.Context, postal string) (Suggestion, bool) {
	postal = strings.TrimSpace(postal)
	if len([]rune(postal)) < MinSuggestLength {
		return Suggestion{}, false
	}

	start := time.Now()
	defer observe(modeSuggest, start)

	query := url.Values{}
	query.Set("format", "json")
	query.Set("postalcode", postal)
	query.Set("limit", "1")
	query.Set("addressdetails", "1")

	places, err := c.search(ctx, query)
	if err != nil {
		logger.Get(ctx).Debug("postal code suggestion failed", "error", err)
		lookupsTotal.WithLabelValues(modeSuggest, outcomeError).Inc()

		return Suggestion{}, false
	}

	if len(places) == 0 {
		lookupsTotal.WithLabelValues(modeSuggest, outcomeNotFound).Inc()

		return Suggestion{}, false
	}

	lookupsTotal.WithLabelValues(modeSuggest, outcomeFound).Inc()

	return Suggestion{
		City:        places[0].Address.locality(),
		CountryCode: strings.ToUpper(places[0].Address.CountryCode),
	}, true
}

// Verify resolves a full location. Every failure wraps ErrLocationNotFound
// except missing input, which is ErrMissingInput.
func (c *Client) Verify(ctx context.Context, country, postal, city string) (Result, error) {
	country = strings.TrimSpace(country)
	postal = strings.TrimSpace(postal)
	city = strings.TrimSpace(city)

	if country == "" || postal == "" || city == "" {
		return Result{}, ErrMissingInput
	}

	start := time.Now()
	defer observe(modeVerify, start)

	query := url.Values{}
	query.Set("format", "json")
	query.Set("q", SearchQuery(country, postal, city))
	query.Set("limit", "1")
	query.Set("addressdetails", "1")

	places, err := c.search(ctx, query)
	if err != nil {
		lookupsTotal.WithLabelValues(modeVerify, outcomeError).Inc()

		return Result{}, fmt.Errorf("%w: %w", ErrLocationNotFound, err)
	}

	if len(places) == 0 {
		lookupsTotal.WithLabelValues(modeVerify, outcomeNotFound).Inc()

		return Result{}, ErrLocationNotFound
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(places[0].Lat), 64)
	if err != nil {
		lookupsTotal.WithLabelValues(modeVerify, outcomeError).Inc()

		return Result{}, fmt.Errorf("%w: latitude %q: %w", ErrLocationNotFound, places[0].Lat, err)
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(places[0].Lon), 64)
	if err != nil {
		lookupsTotal.WithLabelValues(modeVerify, outcomeError).Inc()

		return Result{}, fmt.Errorf("%w: longitude %q: %w", ErrLocationNotFound, places[0].Lon, err)
	}

	zone := c.zones.Resolve(ctx, lat, lon)

	lookupsTotal.WithLabelValues(modeVerify, outcomeFound).Inc()

	return Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: places[0].DisplayName,
		Timezone:    zone.Name,
		TzOffset:    zone.Offset,
	}, nil
}

// SearchQuery builds the free-form "<city>, <postal>, <country name>"
// query, NFC-normalized with runs of whitespace collapsed.
func SearchQuery(country, postal, city string) string {
	raw := fmt.Sprintf("%s, %s, %s", city, postal, CountryName(country))

	return strings.Join(strings.Fields(norm.NFC.String(raw)), " ")
}

func (c *Client) search(ctx context.Context, query url.Values) ([]place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, logger.AnnotateError(fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode),
			"status", resp.StatusCode)
	}

	var places []place

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&places); err != nil {
		return nil, fmt.Errorf("decoding geocoder response: %w", err)
	}

	return places, nil
}

func observe(mode string, start time.Time) {
	lookupTime.WithLabelValues(mode).Observe(float64(time.Since(start).Milliseconds()))
}
