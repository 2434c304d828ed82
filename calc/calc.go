// Package calc is the client of the remote effort calculation API.
package calc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amp-labs/effort-economics/bgworker"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/amp-labs/effort-economics/report"
)

const (
	DefaultBaseURL = "https://effort-economics-api.azurewebsites.net/api"

	// DefaultTimeout bounds a single calculation request.
	DefaultTimeout = 15 * time.Second

	maxResponseBytes = 1 << 20
)

// Payload is the calculation request body.
type Payload struct {
	PhoneNumber string  `json:"phone_number"`
	Consent     bool    `json:"consent"`
	BirthDate   string  `json:"birth_date"`
	BirthTime   string  `json:"birth_time"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	TzOffset    float64 `json:"tz_offset"`
}

// Response is a successful calculation.
type Response struct {
	Output report.Result
	Meta   map[string]any
}

type calculateResponse struct {
	Success bool            `json:"success"`
	Output  json.RawMessage `json:"output"`
	Meta    map[string]any  `json:"meta"`
	Error   string          `json:"error"`
}

// Vote is a thumbs up or down on a result.
type Vote string

const (
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
)

func (v Vote) Validate() error {
	if v != VoteUp && v != VoteDown {
		return fmt.Errorf("%w: %q", ErrInvalidVote, string(v))
	}

	return nil
}

// Client calls the calculation API. It never retries.
type Client struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithTimeout bounds each Calculate call. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// New creates a Client. A nil http client uses http.DefaultClient.
func New(client *http.Client, opts ...Option) *Client {
	if client == nil {
		client = http.DefaultClient
	}

	c := &Client{
		client:  client,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Calculate submits a payload. Failures are *Error values whose Kind is
// ErrRateLimited, ErrServiceError, ErrValidationRejected or ErrNetworkError.
func (c *Client) Calculate(ctx context.Context, payload Payload) (*Response, error) {
	start := time.Now()

	resp, err := c.calculate(ctx, payload)

	submissionTime.Observe(float64(time.Since(start).Milliseconds()))
	submissionsTotal.WithLabelValues(outcomeLabel(err)).Inc()

	return resp, err
}

func (c *Client) calculate(ctx context.Context, payload Payload) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/calculate", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: ErrNetworkError, Message: NetworkMessage, Cause: err}
	}

	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: ErrNetworkError, Message: NetworkMessage, Cause: err}
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, &Error{Kind: ErrRateLimited, StatusCode: httpResp.StatusCode, Message: RateLimitedMessage}
	}

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Kind: ErrNetworkError, StatusCode: httpResp.StatusCode, Message: NetworkMessage, Cause: err}
	}

	var decoded calculateResponse

	decodeErr := json.Unmarshal(raw, &decoded)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		// An undecodable error body still yields the generic status message.
		return nil, serviceError(httpResp.StatusCode, decoded.Error)
	}

	if decodeErr != nil {
		ce := serviceError(httpResp.StatusCode, "")
		ce.Cause = decodeErr

		return nil, ce
	}

	if !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = RejectedMessage
		}

		return nil, &Error{Kind: ErrValidationRejected, StatusCode: httpResp.StatusCode, Message: msg}
	}

	out := &Response{Meta: decoded.Meta}

	if len(decoded.Output) > 0 {
		if err := json.Unmarshal(decoded.Output, &out.Output); err != nil {
			ce := serviceError(httpResp.StatusCode, "")
			ce.Cause = err

			return nil, ce
		}
	}

	return out, nil
}

type usageResponse struct {
	Count int `json:"count"`
}

// Usage returns how many people have used the product.
func (c *Client) Usage(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/usage", nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNetworkError, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, serviceError(resp.StatusCode, "")
	}

	var usage usageResponse

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&usage); err != nil {
		return 0, fmt.Errorf("%w: decoding usage: %w", ErrServiceError, err)
	}

	return usage.Count, nil
}

// Feedback sends a vote. The response body is ignored.
func (c *Client) Feedback(ctx context.Context, vote Vote) error {
	if err := vote.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]Vote{"vote": vote})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/feedback", bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		feedbackTotal.WithLabelValues(string(vote), "false").Inc()

		return fmt.Errorf("%w: %w", ErrNetworkError, err)
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		feedbackTotal.WithLabelValues(string(vote), "false").Inc()

		return serviceError(resp.StatusCode, "")
	}

	feedbackTotal.WithLabelValues(string(vote), "true").Inc()

	return nil
}

// FeedbackAsync sends a vote on the background pool. Only an invalid vote
// or a stopped pool is reported; delivery failures are logged.
func (c *Client) FeedbackAsync(ctx context.Context, vote Vote) error {
	if err := vote.Validate(); err != nil {
		return err
	}

	logger.Get(ctx).Debug("queueing feedback", "vote", vote)

	return bgworker.GoErr(ctx, "feedback", func(ctx context.Context) error {
		return c.Feedback(ctx, vote)
	})
}
