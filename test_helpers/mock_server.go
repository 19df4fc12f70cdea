// Package test_helpers provides a mock Reddit server for tests that exercise
// the client over real HTTP.
package test_helpers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TokenPath is the token endpoint path served by RedditMockServer.
const TokenPath = "/api/v1/access_token"

// MockServer provides a configurable mock API server for testing
type MockServer struct {
	server *httptest.Server

	mu          sync.Mutex
	responses   map[string]*MockResponse
	defaultResp *MockResponse
	delay       time.Duration
	requestLog  []RequestEntry
	callCount   map[string]int

	// intercept, when set, may answer a request before routing.
	intercept func(w http.ResponseWriter, r *http.Request) bool
}

// RequestEntry logs incoming requests for debugging
type RequestEntry struct {
	Method       string
	Path         string
	Query        url.Values
	Headers      http.Header
	Body         string
	Timestamp    time.Time
	ResponseCode int
}

// MockResponse defines a mock API response. When Handler is set it decides
// status and body; call is the 1-based number of requests seen on the path.
type MockResponse struct {
	Status   int
	Body     string
	Headers  map[string]string
	Delay    time.Duration
	MaxCalls int // 0 = unlimited; later calls get 404
	Handler  func(r *http.Request, call int) (int, string)
}

// NewMockServer creates a new mock server instance
func NewMockServer() *MockServer {
	ms := newMockServer()
	ms.server = httptest.NewServer(ms)
	return ms
}

func newMockServer() *MockServer {
	return &MockServer{
		responses: make(map[string]*MockResponse),
		callCount: make(map[string]int),
		defaultResp: &MockResponse{
			Status: http.StatusNotFound,
			Body:   `{"message": "Not Found", "error": 404}`,
		},
	}
}

// URL returns the base URL of the mock server with a trailing slash.
func (ms *MockServer) URL() string {
	return ms.server.URL + "/"
}

// Close shuts down the mock server
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse configures a response for a path. The key is either a bare
// path ("/r/test/hot.json") or a method and path ("POST /api/vote").
func (ms *MockServer) SetResponse(key string, response *MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[key] = response
}

// SetDefaultResponse configures the response for unknown paths.
func (ms *MockServer) SetDefaultResponse(response *MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.defaultResp = response
}

// SetDelay adds delay to all responses
func (ms *MockServer) SetDelay(delay time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.delay = delay
}

// GetRequestLog returns the request log
func (ms *MockServer) GetRequestLog() []RequestEntry {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]RequestEntry{}, ms.requestLog...)
}

// GetCallCount returns the call count for a path
func (ms *MockServer) GetCallCount(path string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.callCount[path]
}

// ClearLog clears the request log and call counts.
func (ms *MockServer) ClearLog() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.requestLog = ms.requestLog[:0]
	ms.callCount = make(map[string]int)
}

// GetLastRequest returns the last request made to a specific path
func (ms *MockServer) GetLastRequest(path string) (*RequestEntry, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for i := len(ms.requestLog) - 1; i >= 0; i-- {
		if ms.requestLog[i].Path == path {
			entry := ms.requestLog[i]
			return &entry, nil
		}
	}
	return nil, fmt.Errorf("no requests found for path: %s", path)
}

// AssertRequestCount asserts that a specific number of requests were made to a path
func (ms *MockServer) AssertRequestCount(path string, expectedCount int) error {
	if actual := ms.GetCallCount(path); actual != expectedCount {
		return fmt.Errorf("expected %d requests to %s, got %d", expectedCount, path, actual)
	}
	return nil
}

// WaitForRequests waits for a specific number of requests to be made
func (ms *MockServer) WaitForRequests(count int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if len(ms.GetRequestLog()) >= count {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for %d requests", count)
		case <-ticker.C:
		}
	}
}

// ServeHTTP implements http.Handler
func (ms *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ms.intercept != nil && ms.intercept(w, r) {
		return
	}
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.callCount[r.URL.Path]++
	call := ms.callCount[r.URL.Path]
	response, ok := ms.responses[r.Method+" "+r.URL.Path]
	if !ok {
		response, ok = ms.responses[r.URL.Path]
	}
	if !ok {
		response = ms.defaultResp
	}
	delay := ms.delay + response.Delay
	ms.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
		}
	}

	status, respBody := response.Status, response.Body
	switch {
	case response.MaxCalls > 0 && call > response.MaxCalls:
		status, respBody = http.StatusNotFound, `{"error": 404}`
	case response.Handler != nil:
		// Handlers read the body again for form parsing.
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		status, respBody = response.Handler(r, call)
	}
	if status == 0 {
		status = http.StatusOK
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, respBody)

	ms.mu.Lock()
	ms.requestLog = append(ms.requestLog, RequestEntry{
		Method:       r.Method,
		Path:         r.URL.Path,
		Query:        r.URL.Query(),
		Headers:      r.Header.Clone(),
		Body:         string(body),
		Timestamp:    time.Now(),
		ResponseCode: status,
	})
	ms.mu.Unlock()
}

// RedditMockServer serves a token endpoint that issues "token-1",
// "token-2", ... on every grant and can require the current one on every
// other path.
type RedditMockServer struct {
	*MockServer

	tokenMu       sync.Mutex
	issued        int
	current       string
	requireBearer bool
	tokenStatus   int
}

// NewRedditMockServer creates a mock server pre-configured for Reddit API responses
func NewRedditMockServer() *RedditMockServer {
	rms := &RedditMockServer{MockServer: newMockServer()}
	rms.responses["POST "+TokenPath] = &MockResponse{Handler: rms.serveToken}
	rms.intercept = rms.checkBearer
	rms.server = httptest.NewServer(rms.MockServer)
	return rms
}

func (rms *RedditMockServer) serveToken(r *http.Request, _ int) (int, string) {
	rms.tokenMu.Lock()
	defer rms.tokenMu.Unlock()

	if rms.tokenStatus != 0 {
		return rms.tokenStatus, `{"error": "invalid_grant"}`
	}
	if err := r.ParseForm(); err != nil {
		return http.StatusBadRequest, `{"error": "bad form"}`
	}
	if _, _, ok := r.BasicAuth(); !ok {
		return http.StatusUnauthorized, `{"error": "unauthorized"}`
	}

	rms.issued++
	rms.current = "token-" + strconv.Itoa(rms.issued)
	return http.StatusOK, fmt.Sprintf(
		`{"access_token":%q,"refresh_token":"refresh-%d","token_type":"bearer","expires_in":3600,"scope":"*"}`,
		rms.current, rms.issued,
	)
}

// RequireBearer makes every path except the token endpoint answer 401
// unless the request carries the most recently issued token.
func (rms *RedditMockServer) RequireBearer() {
	rms.tokenMu.Lock()
	defer rms.tokenMu.Unlock()
	rms.requireBearer = true
}

// FailTokens makes the token endpoint answer status for every grant.
func (rms *RedditMockServer) FailTokens(status int) {
	rms.tokenMu.Lock()
	defer rms.tokenMu.Unlock()
	rms.tokenStatus = status
}

// TokensIssued returns how many tokens the endpoint has granted.
func (rms *RedditMockServer) TokensIssued() int {
	rms.tokenMu.Lock()
	defer rms.tokenMu.Unlock()
	return rms.issued
}

// checkBearer answers 401 when RequireBearer is on and r lacks the current
// token.
func (rms *RedditMockServer) checkBearer(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Path == TokenPath {
		return false
	}
	rms.tokenMu.Lock()
	require, current := rms.requireBearer, rms.current
	rms.tokenMu.Unlock()
	if !require || (current != "" && r.Header.Get("Authorization") == "Bearer "+current) {
		return false
	}

	rms.mu.Lock()
	rms.callCount[r.URL.Path]++
	rms.requestLog = append(rms.requestLog, RequestEntry{
		Method:       r.Method,
		Path:         r.URL.Path,
		Query:        r.URL.Query(),
		Headers:      r.Header.Clone(),
		Timestamp:    time.Now(),
		ResponseCode: http.StatusUnauthorized,
	})
	rms.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = io.WriteString(w, `{"message": "Unauthorized", "error": 401}`)
	return true
}

// SetupListing serves a listing of children at path for both the public
// (".json") and OAuth forms of the path.
func (rms *RedditMockServer) SetupListing(path, after string, children ...string) {
	body := ListingJSON(after, children...)
	rms.SetResponse(path, &MockResponse{Status: http.StatusOK, Body: body})
	rms.SetResponse(path+".json", &MockResponse{Status: http.StatusOK, Body: body})
}

// SetupRateLimit configures rate limiting headers on the default response
func (rms *RedditMockServer) SetupRateLimit(remaining, used int, resetTime time.Time) {
	rms.SetDefaultResponse(&MockResponse{
		Status: http.StatusOK,
		Body:   `{}`,
		Headers: map[string]string{
			"X-Ratelimit-Remaining": strconv.Itoa(remaining),
			"X-Ratelimit-Used":      strconv.Itoa(used),
			"X-Ratelimit-Reset":     strconv.FormatInt(int64(time.Until(resetTime).Seconds()), 10),
		},
	})
}

// SetupError configures error responses for unknown paths
func (rms *RedditMockServer) SetupError(statusCode int, message string) {
	rms.SetDefaultResponse(&MockResponse{
		Status: statusCode,
		Body:   fmt.Sprintf(`{"error": %q}`, message),
	})
}

// ListingJSON renders a Listing thing around already-encoded children.
func ListingJSON(after string, children ...string) string {
	afterJSON := "null"
	if after != "" {
		afterJSON = strconv.Quote(after)
	}
	return fmt.Sprintf(`{"kind":"Listing","data":{"after":%s,"before":null,"children":[%s]}}`,
		afterJSON, strings.Join(children, ","))
}

// PostJSON renders a minimal t3 thing linking to link.
func PostJSON(id, title, link string) string {
	return fmt.Sprintf(`{"kind":"t3","data":{"id":%q,"name":"t3_%s","title":%q,"url":%q,"author":"tester","score":1,"subreddit":"test"}}`,
		id, id, title, link)
}

// CommentJSON renders a t1 thing. replies is an encoded Listing or "".
func CommentJSON(id, author, body, replies string) string {
	if replies == "" {
		replies = `""`
	}
	return fmt.Sprintf(`{"kind":"t1","data":{"id":%q,"name":"t1_%s","author":%q,"body":%q,"score":1,"replies":%s}}`,
		id, id, author, body, replies)
}
