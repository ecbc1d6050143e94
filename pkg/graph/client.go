package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://graph.facebook.com"

	requestTimeout  = 30 * time.Second
	defaultAttempts = 6
	backoffBase     = 2 * time.Second
	backoffCap      = 120 * time.Second
	throttleSpacing = 250 * time.Millisecond
)

// Logger receives progress and warning messages from the client and the
// packages built on top of it. A nil Logger means silent operation.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Client issues read-only Graph API requests with a bounded timeout, a fixed
// inter-request throttle, and bounded retry with exponential backoff for
// transient failures. All methods classify failures into the error taxonomy
// in errors.go before returning.
type Client struct {
	accessToken string
	version     string
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	logger      Logger

	// Injection points for deterministic tests.
	sleep  func(time.Duration)
	jitter func() float64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at a different API host. Used by tests to
// target an httptest server.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(base, "/") }
}

// WithLogger installs a logger for retry and throttle diagnostics.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxAttempts overrides the retry attempt ceiling.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithThrottle overrides the inter-request spacing. Zero disables throttling.
func WithThrottle(spacing time.Duration) Option {
	return func(c *Client) {
		if spacing <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(spacing), 1)
	}
}

// WithSleep replaces the backoff sleep function.
func WithSleep(fn func(time.Duration)) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithJitter replaces the jitter source. The function must return values in
// [0, 1).
func WithJitter(fn func() float64) Option {
	return func(c *Client) {
		if fn != nil {
			c.jitter = fn
		}
	}
}

// NewClient creates a Graph API client for the given access token and API
// version (e.g. "v23.0").
func NewClient(accessToken, version string, opts ...Option) *Client {
	c := &Client{
		accessToken: accessToken,
		version:     version,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
		limiter:     rate.NewLimiter(rate.Every(throttleSpacing), 1),
		maxAttempts: defaultAttempts,
		logger:      nopLogger{},
		sleep:       time.Sleep,
		jitter:      rand.Float64,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Version returns the Graph API version the client was built for.
func (c *Client) Version() string { return c.version }

// CallOption adjusts classification for a single call.
type CallOption func(*callConfig)

type callConfig struct {
	nonRetryable map[int]bool
}

// NonRetryable marks Graph error codes that must be surfaced immediately as
// InvalidParameter for this call instead of entering the retry loop. Used for
// fast candidate switching (deprecated field sets) and metric probing.
func NonRetryable(codes ...int) CallOption {
	return func(cc *callConfig) {
		if cc.nonRetryable == nil {
			cc.nonRetryable = make(map[int]bool, len(codes))
		}
		for _, code := range codes {
			cc.nonRetryable[code] = true
		}
	}
}

// Get performs a GET against {base}/{version}/{path} with the given query
// parameters and returns the parsed body. The access token is appended
// automatically.
func (c *Client) Get(ctx context.Context, path string, params url.Values, opts ...CallOption) (Record, error) {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, c.version, strings.TrimPrefix(path, "/"))
	if params == nil {
		params = url.Values{}
	}
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("access_token", c.accessToken)
	return c.get(ctx, u+"?"+q.Encode(), opts...)
}

// GetURL performs a GET against an absolute URL, typically a server-supplied
// paging.next link that already embeds every query parameter including the
// access token.
func (c *Client) GetURL(ctx context.Context, absolute string, opts ...CallOption) (Record, error) {
	return c.get(ctx, absolute, opts...)
}

func (c *Client) get(ctx context.Context, fullURL string, opts ...CallOption) (Record, error) {
	var cc callConfig
	for _, opt := range opts {
		opt(&cc)
	}

	var lastErr *Error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		payload, err := c.doOnce(ctx, fullURL, cc.nonRetryable)
		if err == nil {
			return payload, nil
		}

		ge, ok := err.(*Error)
		if !ok {
			return nil, err
		}
		switch ge.Kind {
		case KindFatal, KindInvalidParameter, KindPermanent:
			return nil, ge
		}

		lastErr = ge
		if attempt == c.maxAttempts {
			break
		}
		delay := backoffDelay(attempt, backoffBase, backoffCap, c.jitter())
		c.logger.Warnf("attempt %d/%d failed for %s; retrying in %.2fs: %v",
			attempt, c.maxAttempts, redactToken(fullURL), delay.Seconds(), ge)
		c.sleep(delay)
	}

	lastErr.Attempts = c.maxAttempts
	lastErr.Kind = KindPermanent
	return nil, lastErr
}

// doOnce performs a single request/classify cycle.
func (c *Client) doOnce(ctx context.Context, fullURL string, nonRetryable map[int]bool) (Record, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindPermanent, Message: "throttle wait interrupted", Cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindPermanent, Message: "building request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransient, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransient, StatusCode: resp.StatusCode, Message: "reading response body", Cause: err}
	}

	// A Graph error object in the body outranks the HTTP status: the API
	// frequently reports rate limiting and auth failures with status 400.
	var env struct {
		Error *apiError `json:"error"`
	}
	if jsonErr := json.Unmarshal(body, &env); jsonErr == nil && env.Error != nil {
		ae := env.Error
		return nil, &Error{
			Kind:       classify(ae.Code, nonRetryable),
			Code:       ae.Code,
			Subcode:    ae.Subcode,
			Type:       ae.Type,
			Message:    ae.Message,
			TraceID:    ae.FBTraceID,
			StatusCode: resp.StatusCode,
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &Error{Kind: KindTransient, StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Kind: KindPermanent, StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))}
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, &Error{Kind: KindTransient, StatusCode: resp.StatusCode,
			Message: "parsing response body", Cause: err}
	}
	return rec, nil
}

// redactToken strips the access token from a URL for logging.
func redactToken(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("access_token") {
		q.Set("access_token", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
