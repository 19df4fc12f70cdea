package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
	"golang.org/x/time/rate"
)

func newBareClient() *Client {
	return &Client{logger: slog.New(slog.DiscardHandler)}
}

func TestNewClient_DefaultRateLimiter(t *testing.T) {
	client, err := NewClient(nil, nil, "https://example.com/api/", "https://www.example.com/", "agent", nil, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if client.limiter == nil {
		t.Fatalf("expected limiter to be initialized")
	}

	if got := client.limiter.Limit(); got != rate.Limit(1) {
		t.Errorf("expected default limit 1 req/sec, got %v", got)
	}
	if got := client.limiter.Burst(); got != 10 {
		t.Errorf("expected default burst of 10, got %d", got)
	}
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, tc := range []struct{ base, public string }{
		{"://bad", "https://www.example.com/"},
		{"https://oauth.example.com/", "://bad"},
	} {
		_, err := NewClient(nil, nil, tc.base, tc.public, "agent", nil, nil)
		if err == nil {
			t.Fatalf("expected error for base %q public %q", tc.base, tc.public)
		}

		var cfgErr *pkgerrs.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigError, got %T", err)
		}
	}
}

func TestNewClient_CustomLimiterConfig(t *testing.T) {
	client, err := NewClient(nil, nil, "https://example.com/api", "https://www.example.com", "agent", &RateLimitConfig{RequestsPerMinute: 120, Burst: 5}, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if got := client.BaseURL.String(); got != "https://example.com/api/" {
		t.Fatalf("expected base URL to gain trailing slash, got %q", got)
	}
	if got := client.PublicBaseURL.String(); got != "https://www.example.com/" {
		t.Fatalf("expected public URL to gain trailing slash, got %q", got)
	}

	if got := client.limiter.Limit(); got != rate.Limit(2) {
		t.Errorf("expected limit of 2 req/sec, got %v", got)
	}
	if got := client.limiter.Burst(); got != 5 {
		t.Errorf("expected burst of 5, got %d", got)
	}
}

func TestClient_NewRequestRouting(t *testing.T) {
	tests := []struct {
		name     string
		loggedIn bool
		path     string
		want     string
	}{
		{name: "logged in listing", loggedIn: true, path: "r/golang/hot", want: "https://oauth.example.com/r/golang/hot"},
		{name: "logged in with query", loggedIn: true, path: "r/golang/hot?limit=5", want: "https://oauth.example.com/r/golang/hot?limit=5"},
		{name: "logged out listing", path: "r/golang/hot", want: "https://www.example.com/r/golang/hot.json"},
		{name: "logged out with query", path: "r/golang/new?after=t3_x", want: "https://www.example.com/r/golang/new.json?after=t3_x"},
		{name: "logged out front page", path: "hot", want: "https://www.example.com/hot.json"},
		{name: "logged out trailing slash", path: "r/pics/comments/abc/", want: "https://www.example.com/r/pics/comments/abc.json"},
		{name: "logged out already json", path: "r/pics/about.json", want: "https://www.example.com/r/pics/about.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := NewSession()
			if tt.loggedIn {
				session.Login(Credentials{Account: "spez", AccessToken: "at"})
			}
			c, err := NewClient(&http.Client{}, session, "https://oauth.example.com", "https://www.example.com", "my-agent", nil, nil)
			if err != nil {
				t.Fatalf("NewClient returned error: %v", err)
			}

			req, err := c.NewRequest(context.Background(), http.MethodGet, tt.path, nil)
			if err != nil {
				t.Fatalf("NewRequest returned error: %v", err)
			}
			if req.URL.String() != tt.want {
				t.Errorf("URL = %s, want %s", req.URL, tt.want)
			}
			if got := req.Header.Get("User-Agent"); got != "my-agent" {
				t.Errorf("expected User-Agent 'my-agent', got %q", got)
			}
			if got := req.Header.Get("Authorization"); got != "" {
				t.Errorf("NewRequest must leave Authorization to the transport, got %q", got)
			}
		})
	}
}

func TestClient_NewRequestInvalidPath(t *testing.T) {
	c, err := NewClient(nil, nil, "https://example.com", "https://www.example.com", "agent", nil, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.NewRequest(context.Background(), http.MethodGet, "%zz", nil)
	if err == nil {
		t.Fatal("expected error constructing request with invalid path")
	}

	var cfgErr *pkgerrs.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
}

func TestClient_NewRequestFormBody(t *testing.T) {
	session := NewSession()
	session.Login(Credentials{Account: "spez", AccessToken: "at"})
	c, err := NewClient(nil, session, "https://example.com", "https://www.example.com", "agent", nil, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	req, err := c.NewRequest(context.Background(), http.MethodPost, "api/vote", strings.NewReader("id=t3_x&dir=1"))
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}
	if req.GetBody == nil {
		t.Fatal("form body must be replayable")
	}
	if got := req.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestFetch_DecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/golang/about.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"kind":"t5","data":{"display_name":"golang"}}`))
	}))
	defer server.Close()

	c, err := NewClient(server.Client(), nil, server.URL, server.URL, "agent", &RateLimitConfig{RequestsPerMinute: 6000, Burst: 100}, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, "r/golang/about", nil)
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}

	type kinded struct {
		Kind string `json:"kind"`
	}
	thing, err := Fetch[kinded](c, req).Get()
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if thing.Kind != "t5" {
		t.Errorf("Kind = %q, want t5", thing.Kind)
	}
}

func TestFetch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c, err := NewClient(server.Client(), nil, server.URL, server.URL, "agent", nil, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	req, _ := c.NewRequest(context.Background(), http.MethodGet, "hot", nil)

	res := Fetch[map[string]any](c, req)
	if res.Message() != "bad status: 429" {
		t.Errorf("Message() = %q, want bad status: 429", res.Message())
	}
}

func TestClient_SendEnforcesRetryAfter(t *testing.T) {
	var (
		mu        sync.Mutex
		callCount int
		firstHit  time.Time
		secondHit time.Time
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
		if callCount == 1 {
			firstHit = time.Now()
			w.Header().Set("Retry-After", "0.1")
			w.Header().Set("X-Ratelimit-Remaining", "0")
			w.Header().Set("X-Ratelimit-Reset", "0.1")
		} else {
			secondHit = time.Now()
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.Client(), nil, server.URL+"/", server.URL+"/", "agent", &RateLimitConfig{RequestsPerMinute: 60000, Burst: 1000}, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx := context.Background()
	req1, err := c.NewRequest(ctx, http.MethodGet, "first", nil)
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}
	if res := Fetch[map[string]any](c, req1); !res.IsOk() {
		t.Fatalf("first request returned error: %v", res.Err())
	}

	req2, err := c.NewRequest(ctx, http.MethodGet, "second", nil)
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}

	start := time.Now()
	if res := Fetch[map[string]any](c, req2); !res.IsOk() {
		t.Fatalf("second request returned error: %v", res.Err())
	}
	elapsed := time.Since(start)

	mu.Lock()
	s := secondHit
	f := firstHit
	n := callCount
	mu.Unlock()

	if n != 2 {
		t.Fatalf("expected 2 calls to server, got %d", n)
	}
	if diff := s.Sub(f); diff < 90*time.Millisecond {
		t.Fatalf("expected at least 90ms between requests, got %v", diff)
	}
	if elapsed < 90*time.Millisecond {
		t.Fatalf("expected request to take at least 90ms due to rate limit, took %v", elapsed)
	}
}

func TestClient_SendHonorsCanceledContextBeforeSend(t *testing.T) {
	transportCalled := false
	httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		transportCalled = true
		return nil, errors.New("unexpected transport call")
	})}

	c, err := NewClient(httpClient, nil, "https://example.com/", "https://www.example.com/", "agent", nil, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := c.NewRequest(ctx, http.MethodGet, "resource", nil)
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}

	res := Fetch[map[string]any](c, req)
	if !errors.Is(res.Err(), context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", res.Err())
	}
	var netErr *pkgerrs.NetworkError
	if !errors.As(res.Err(), &netErr) {
		t.Fatalf("expected NetworkError, got %T", res.Err())
	}
	if transportCalled {
		t.Fatal("transport should not be invoked when context already canceled")
	}
}

func TestClient_WaitForForcedDelayBlocksAndClears(t *testing.T) {
	c := newBareClient()
	c.forceWaitUntil = time.Now().Add(30 * time.Millisecond)

	start := time.Now()
	if err := c.waitForForcedDelay(context.Background()); err != nil {
		t.Fatalf("waitForForcedDelay returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("expected waitForForcedDelay to block, elapsed %v", elapsed)
	}

	if !c.forceWaitUntil.IsZero() {
		t.Fatal("expected forced delay to be cleared after waiting")
	}
}

func TestClient_WaitForForcedDelayContextCanceled(t *testing.T) {
	c := newBareClient()
	c.forceWaitUntil = time.Now().Add(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.waitForForcedDelay(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
	if c.forceWaitUntil.IsZero() {
		t.Fatalf("forced delay should remain until cleared on successful wait")
	}
}

func TestClient_DeferRequestsExtendsDelay(t *testing.T) {
	c := newBareClient()

	c.deferRequests(-time.Second)
	if !c.forceWaitUntil.IsZero() {
		t.Fatal("negative duration should not set forced delay")
	}

	c.deferRequests(20 * time.Millisecond)
	first := c.forceWaitUntil
	if first.IsZero() {
		t.Fatal("expected forced delay to be set")
	}

	c.deferRequests(5 * time.Millisecond)
	if second := c.forceWaitUntil; !second.Equal(first) {
		t.Fatalf("shorter defer should not reduce wait: first=%v second=%v", first, second)
	}

	c.deferRequests(40 * time.Millisecond)
	if third := c.forceWaitUntil; !third.After(first) {
		t.Fatalf("longer defer should extend wait: first=%v third=%v", first, third)
	}
}

func TestClient_ApplyRateHeaders(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		wantWait bool
	}{
		{name: "retry after", headers: map[string]string{"Retry-After": "0.05"}, wantWait: true},
		{name: "remaining exhausted", headers: map[string]string{"X-Ratelimit-Remaining": "1", "X-Ratelimit-Reset": "0.05"}, wantWait: true},
		{name: "remaining plenty", headers: map[string]string{"X-Ratelimit-Remaining": "250", "X-Ratelimit-Reset": "30"}},
		{name: "garbage", headers: map[string]string{"Retry-After": "soon", "X-Ratelimit-Remaining": "x", "X-Ratelimit-Reset": "y"}},
		{name: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newBareClient()
			resp := &http.Response{Header: make(http.Header)}
			for k, v := range tt.headers {
				resp.Header.Set(k, v)
			}

			c.applyRateHeaders(resp)
			if got := !c.forceWaitUntil.IsZero(); got != tt.wantWait {
				t.Errorf("forced delay set = %v, want %v", got, tt.wantWait)
			}
			if tt.wantWait && time.Until(c.forceWaitUntil) <= 0 {
				t.Errorf("expected forced delay in the future, got %v", c.forceWaitUntil)
			}
		})
	}
}

func TestClient_ApplyRateHeadersDoesNotShortenDelay(t *testing.T) {
	c := newBareClient()
	c.deferRequests(60 * time.Millisecond)
	initial := c.forceWaitUntil

	resp := &http.Response{Header: make(http.Header)}
	resp.Header.Set("Retry-After", "0.01")
	c.applyRateHeaders(resp)

	if !c.forceWaitUntil.Equal(initial) {
		t.Fatalf("expected shorter retry-after to be ignored: initial=%v final=%v", initial, c.forceWaitUntil)
	}
}
