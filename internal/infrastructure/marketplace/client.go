package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from a marketplace
// API (10MB)
const maxResponseSize = 10 * 1024 * 1024

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 200 * time.Millisecond
	defaultBackoffCap  = 5 * time.Second
	defaultTimeout     = 30 * time.Second
)

// Client is the shared HTTP layer under every marketplace adapter. It owns
// the retry policy: connection failures and 5xx responses are retried with
// exponential backoff, 429 responses wait out Retry-After (falling back to
// the backoff schedule), and any other 4xx fails immediately as a
// ClientError. After the attempt budget the last failure surfaces as a
// TransientError or RateLimitError so workers can route it through the job
// store's retry policy.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	headers     map[string]string
	logger      *zap.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithMaxAttempts overrides the per-call attempt budget.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff overrides the backoff schedule.
func WithBackoff(base, cap time.Duration) ClientOption {
	return func(c *Client) {
		c.backoffBase = base
		c.backoffCap = cap
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHeader adds a header to every request, typically authentication.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers[key] = value }
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, logger *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     baseURL,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		backoffCap:  defaultBackoffCap,
		headers:     make(map[string]string),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one marketplace API call. Body, when non-nil, is sent as
// JSON; it is re-marshaled on every attempt so the request stays repeatable.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// apiError is the common error envelope the marketplace APIs return.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// response is one HTTP exchange, already drained.
type response struct {
	status     int
	body       []byte
	retryAfter time.Duration
}

// Do performs the call and unmarshals a 2xx response body into out (skipped
// when out is nil). op names the call in errors and logs.
func (c *Client) Do(ctx context.Context, op string, req *Request, out any) error {
	var lastErr error
	var lastRetryAfter time.Duration

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt, lastRetryAfter); err != nil {
				return err
			}
		}
		lastRetryAfter = 0

		start := time.Now()
		resp, err := c.send(ctx, req)
		elapsed := time.Since(start)
		if err != nil {
			lastErr = &integration.TransientError{Op: op, Err: err}
			c.logger.Debug("marketplace request failed",
				zap.String("op", op),
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Duration("duration", elapsed),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		// Every exchange is recorded, success included.
		c.logger.Debug("marketplace request",
			zap.String("op", op),
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("status", resp.status),
			zap.Duration("duration", elapsed),
			zap.Int("attempt", attempt+1))

		switch {
		case resp.status < 300:
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(resp.body, out); err != nil {
				return fmt.Errorf("%w: %s: %v", integration.ErrGatewayInvalidResponse, op, err)
			}
			return nil

		case resp.status == http.StatusTooManyRequests:
			lastErr = &integration.RateLimitError{Op: op, RetryAfter: resp.retryAfter}
			lastRetryAfter = resp.retryAfter
			c.logger.Debug("marketplace rate limited",
				zap.String("op", op),
				zap.Duration("retry_after", resp.retryAfter),
				zap.Int("attempt", attempt+1))

		case resp.status >= 500:
			lastErr = &integration.TransientError{Op: op, Err: fmt.Errorf("HTTP %d", resp.status)}

		default:
			// Non-429 4xx: retrying the identical request cannot succeed.
			var envelope apiError
			_ = json.Unmarshal(resp.body, &envelope)
			return &integration.ClientError{StatusCode: resp.status, Code: envelope.Code, Message: envelope.Message}
		}
	}

	return lastErr
}

func (c *Client) send(ctx context.Context, req *Request) (*response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, err
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}

	return &response{
		status:     resp.StatusCode,
		body:       body,
		retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}, nil
}

// wait sleeps out the backoff before the next attempt. A rate-limit
// Retry-After takes precedence over the exponential schedule.
func (c *Client) wait(ctx context.Context, attempt int, retryAfter time.Duration) error {
	delay := c.backoff(attempt)
	if retryAfter > 0 {
		delay = retryAfter
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoff returns base*2^(attempt-1) capped at backoffCap.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.backoffBase << uint(attempt-1)
	if delay > c.backoffCap || delay <= 0 {
		return c.backoffCap
	}
	return delay
}

// parseRetryAfter handles the delay-seconds form of the header. The HTTP-date
// form is rare on these APIs and falls back to the backoff schedule.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
