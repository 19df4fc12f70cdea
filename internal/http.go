package internal

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
	"github.com/jamesprial/go-reddit-media/pkg/types"
	"golang.org/x/time/rate"
)

// Client manages communication with the Reddit API. Requests for a logged-in
// session go to BaseURL; logged-out requests go to PublicBaseURL with the
// ".json" suffix Reddit's public listing pages expect.
type Client struct {
	client        *http.Client
	session       *Session
	BaseURL       *url.URL
	PublicBaseURL *url.URL
	UserAgent     string
	logger        *slog.Logger

	limiter        *rate.Limiter
	mu             sync.Mutex
	forceWaitUntil time.Time
}

// RateLimitConfig controls how requests are throttled before reaching Reddit.
type RateLimitConfig struct {
	// RequestsPerMinute caps steady-state throughput. Defaults to 60 if zero.
	RequestsPerMinute float64
	// Burst allows short spikes above the steady-state rate. Defaults to 10 if zero.
	Burst int
}

const (
	DefaultRequestsPerMinute = 60
	DefaultRateLimitBurst    = 10
	SecondsPerMinute         = 60.0
	ParseFloatBitSize        = 64
)

// NewClient returns a new Reddit API client. httpClient is expected to carry
// an AuthTransport for session; a nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, session *Session, baseURL, publicBaseURL, userAgent string, rateCfg *RateLimitConfig, logger *slog.Logger) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if session == nil {
		session = NewSession()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	parsedURL, err := parseBase(baseURL)
	if err != nil {
		return nil, err
	}
	publicURL, err := parseBase(publicBaseURL)
	if err != nil {
		return nil, err
	}

	if rateCfg == nil {
		rateCfg = &RateLimitConfig{}
	}

	return &Client{
		client:        httpClient,
		session:       session,
		BaseURL:       parsedURL,
		PublicBaseURL: publicURL,
		UserAgent:     userAgent,
		logger:        logger,
		limiter:       buildLimiter(*rateCfg),
	}, nil
}

func parseBase(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, &pkgerrs.ConfigError{Field: "BaseURL", Message: err.Error()}
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed, nil
}

// NewRequest creates an API request. A relative URL can be provided in path,
// in which case it is resolved against BaseURL or, when logged out,
// PublicBaseURL. Authorization is left to the transport.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	base := c.BaseURL
	loggedIn := c.session.LoggedIn()
	if !loggedIn {
		base = c.PublicBaseURL
	}

	u, err := base.Parse(path)
	if err != nil {
		return nil, &pkgerrs.ConfigError{Field: "path", Message: err.Error()}
	}
	if !loggedIn && !strings.HasSuffix(u.Path, ".json") {
		u.Path = strings.TrimSuffix(u.Path, "/") + ".json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &pkgerrs.ConfigError{Field: "request", Message: err.Error()}
	}

	req.Header.Set("User-Agent", c.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return req, nil
}

// Send waits for the rate limiter, sends req and records the rate headers of
// the response. The caller owns the response body.
func (c *Client) Send(req *http.Request) (*http.Response, error) {
	if err := c.waitForRateLimit(req.Context()); err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	c.applyRateHeaders(resp)
	c.logger.Debug("reddit request", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)
	return resp, nil
}

// Fetch sends req through c and decodes the JSON body into T.
func Fetch[T any](c *Client, req *http.Request) types.Result[T] {
	return Perform[T](func() (*http.Response, error) {
		return c.Send(req)
	})
}

func buildLimiter(cfg RateLimitConfig) *rate.Limiter {
	requestsPerMinute := cfg.RequestsPerMinute
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultRateLimitBurst
	}

	limitPerSecond := rate.Limit(requestsPerMinute / SecondsPerMinute)
	if limitPerSecond <= 0 {
		limitPerSecond = rate.Limit(1)
	}

	return rate.NewLimiter(limitPerSecond, burst)
}

func (c *Client) waitForRateLimit(ctx context.Context) error {
	if err := c.waitForForcedDelay(ctx); err != nil {
		return err
	}

	if c.limiter == nil {
		return nil
	}

	return c.limiter.Wait(ctx)
}

func (c *Client) waitForForcedDelay(ctx context.Context) error {
	for {
		c.mu.Lock()
		waitUntil := c.forceWaitUntil
		c.mu.Unlock()

		if waitUntil.IsZero() {
			return nil
		}

		now := time.Now()
		if !now.Before(waitUntil) {
			c.clearForcedDelay(waitUntil)
			return nil
		}

		timer := time.NewTimer(waitUntil.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			c.clearForcedDelay(waitUntil)
		}
	}
}

func (c *Client) clearForcedDelay(previous time.Time) {
	c.mu.Lock()
	if previous.Equal(c.forceWaitUntil) {
		c.forceWaitUntil = time.Time{}
	}
	c.mu.Unlock()
}

func (c *Client) applyRateHeaders(resp *http.Response) {
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.ParseFloat(retryAfter, ParseFloatBitSize); err == nil && seconds > 0 {
			c.deferRequests(time.Duration(seconds * float64(time.Second)))
		}
	}

	remainingHeader := resp.Header.Get("X-Ratelimit-Remaining")
	resetHeader := resp.Header.Get("X-Ratelimit-Reset")
	if remainingHeader == "" || resetHeader == "" {
		return
	}

	remaining, errRemaining := strconv.ParseFloat(remainingHeader, ParseFloatBitSize)
	resetSeconds, errReset := strconv.ParseFloat(resetHeader, ParseFloatBitSize)
	if errRemaining != nil || errReset != nil || resetSeconds <= 0 {
		return
	}

	if remaining <= 1 {
		c.deferRequests(time.Duration(resetSeconds * float64(time.Second)))
	}
}

func (c *Client) deferRequests(d time.Duration) {
	if d <= 0 {
		return
	}

	until := time.Now().Add(d)

	c.mu.Lock()
	if until.After(c.forceWaitUntil) {
		c.forceWaitUntil = until
		c.logger.Debug("deferring requests", "until", until)
	}
	c.mu.Unlock()
}
