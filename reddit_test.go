package graw

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
	"github.com/jamesprial/go-reddit-media/pkg/types"
	"github.com/jamesprial/go-reddit-media/test_helpers"
)

// newMockClient returns a client whose OAuth host is the mock server's
// /oauth/ prefix and whose public host and token endpoint are its root.
func newMockClient(t *testing.T, configure ...func(*Config)) (*Client, *test_helpers.RedditMockServer) {
	t.Helper()

	ms := test_helpers.NewRedditMockServer()
	t.Cleanup(ms.Close)

	config := &Config{
		ClientID:      "test-client",
		ClientSecret:  "test-secret",
		RedirectURI:   "http://localhost:8080/callback",
		UserAgent:     "graw-test/1.0",
		BaseURL:       ms.URL() + "oauth/",
		PublicBaseURL: ms.URL(),
		AuthURL:       ms.URL(),
		RateLimit:     &RateLimitConfig{RequestsPerMinute: 60000, Burst: 100},
	}
	for _, fn := range configure {
		fn(config)
	}

	client, err := NewClient(config)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, ms
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		wantError bool
	}{
		{name: "nil config", config: nil, wantError: true},
		{name: "missing client ID", config: &Config{ClientSecret: "secret"}, wantError: true},
		{name: "newline in user agent", config: &Config{ClientID: "id", UserAgent: "bad\nagent"}, wantError: true},
		{name: "bad base URL", config: &Config{ClientID: "id", BaseURL: "://nope"}, wantError: true},
		{name: "installed app without secret", config: &Config{ClientID: "id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.wantError {
				if err == nil {
					t.Fatal("NewClient() expected error")
				}
				var clientErr *ClientError
				if !errors.As(err, &clientErr) {
					t.Errorf("error = %T, want *ClientError", err)
				}
				var configErr *pkgerrs.ConfigError
				if !errors.As(err, &configErr) {
					t.Errorf("error = %v, want wrapped *ConfigError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if client.config.BaseURL != DefaultBaseURL || client.config.PublicBaseURL != DefaultPublicBaseURL {
				t.Errorf("defaults not applied: %+v", client.config)
			}
			if client.config.ResolveConcurrency != DefaultResolveConcurrency {
				t.Errorf("ResolveConcurrency = %d", client.config.ResolveConcurrency)
			}
			if _, ok := client.Session(); ok {
				t.Error("new client should be logged out")
			}
		})
	}
}

func TestClient_GetHotLoggedOut(t *testing.T) {
	client, ms := newMockClient(t)
	ms.SetupListing("/r/test/hot", "t3_b",
		test_helpers.PostJSON("a", "First", "https://streamable.com/abc"),
	)

	resp, err := client.GetHot(context.Background(), &types.PostsRequest{
		Subreddit:  "test",
		Pagination: types.Pagination{Limit: 5},
	})
	if err != nil {
		t.Fatalf("GetHot() error = %v", err)
	}
	if len(resp.Posts) != 1 || resp.Posts[0].Title != "First" {
		t.Fatalf("GetHot() posts = %+v", resp.Posts)
	}
	if resp.AfterFullname != "t3_b" {
		t.Errorf("AfterFullname = %q, want t3_b", resp.AfterFullname)
	}

	req, err := ms.GetLastRequest("/r/test/hot.json")
	if err != nil {
		t.Fatal(err)
	}
	if req.Query.Get("limit") != "5" || req.Query.Get("raw_json") != "1" {
		t.Errorf("query = %v", req.Query)
	}
	if auth := req.Headers.Get("Authorization"); auth != "" {
		t.Errorf("logged-out request carried Authorization %q", auth)
	}
	if ua := req.Headers.Get("User-Agent"); ua != "graw-test/1.0" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestClient_GetListingQuery(t *testing.T) {
	client, ms := newMockClient(t)
	ms.SetupListing("/top", "")
	ms.SetupListing("/r/test/rising", "")

	ctx := context.Background()
	if _, err := client.GetTop(ctx, &types.PostsRequest{TimeFilter: "week", Pagination: types.Pagination{After: "t3_x"}}); err != nil {
		t.Fatalf("GetTop() error = %v", err)
	}
	req, _ := ms.GetLastRequest("/top.json")
	if req == nil || req.Query.Get("t") != "week" || req.Query.Get("after") != "t3_x" {
		t.Errorf("top query = %+v", req)
	}

	if _, err := client.GetRising(ctx, &types.PostsRequest{Subreddit: "test", TimeFilter: "week"}); err != nil {
		t.Fatalf("GetRising() error = %v", err)
	}
	req, _ = ms.GetLastRequest("/r/test/rising.json")
	if req == nil || req.Query.Has("t") {
		t.Errorf("rising query = %+v, want no t", req)
	}
}

func TestClient_GetListingValidation(t *testing.T) {
	client, ms := newMockClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		sort string
		req  *types.PostsRequest
	}{
		{name: "unknown sort", sort: "sideways"},
		{name: "bad subreddit", sort: SortHot, req: &types.PostsRequest{Subreddit: "no spaces allowed"}},
		{name: "after and before", sort: SortNew, req: &types.PostsRequest{Pagination: types.Pagination{After: "t3_a", Before: "t3_b"}}},
		{name: "bad time filter", sort: SortTop, req: &types.PostsRequest{TimeFilter: "fortnight"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.GetListing(ctx, tt.sort, tt.req)
			var configErr *pkgerrs.ConfigError
			if !errors.As(err, &configErr) {
				t.Errorf("GetListing() error = %v, want ConfigError", err)
			}
		})
	}
	if n := len(ms.GetRequestLog()); n != 0 {
		t.Errorf("invalid requests reached the server %d times", n)
	}
}

func TestClient_LoggedInRefreshesMissingToken(t *testing.T) {
	client, ms := newMockClient(t)
	ms.RequireBearer()
	ms.SetupListing("/oauth/r/test/new", "")

	client.Login(Credentials{Account: "alice", RefreshToken: "refresh-0"})

	if _, err := client.GetNew(context.Background(), &types.PostsRequest{Subreddit: "test"}); err != nil {
		t.Fatalf("GetNew() error = %v", err)
	}
	if n := ms.TokensIssued(); n != 1 {
		t.Errorf("tokens issued = %d, want 1", n)
	}
	req, err := ms.GetLastRequest("/oauth/r/test/new")
	if err != nil {
		t.Fatal(err)
	}
	if got := req.Headers.Get("Authorization"); got != "Bearer token-1" {
		t.Errorf("Authorization = %q", got)
	}
	if _, err := ms.GetLastRequest("/r/test/new.json"); err == nil {
		t.Error("logged-in request went to the public host")
	}
}

func TestClient_RefreshesRejectedToken(t *testing.T) {
	var mu sync.Mutex
	var refreshed []Credentials
	client, ms := newMockClient(t, func(c *Config) {
		c.OnRefresh = func(creds Credentials) {
			mu.Lock()
			refreshed = append(refreshed, creds)
			mu.Unlock()
		}
	})
	ms.RequireBearer()
	ms.SetupListing("/oauth/hot", "")

	client.Login(Credentials{Account: "alice", AccessToken: "stale", RefreshToken: "refresh-0"})

	if _, err := client.GetHot(context.Background(), nil); err != nil {
		t.Fatalf("GetHot() error = %v", err)
	}

	if n := ms.GetCallCount("/oauth/hot"); n != 2 {
		t.Errorf("listing calls = %d, want 2 (rejected + retried)", n)
	}
	if n := ms.TokensIssued(); n != 1 {
		t.Errorf("tokens issued = %d, want 1", n)
	}
	creds, ok := client.Session()
	if !ok || creds.AccessToken != "token-1" || creds.RefreshToken != "refresh-1" || creds.Account != "alice" {
		t.Errorf("session after refresh = %+v", creds)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(refreshed) != 1 || refreshed[0].AccessToken != "token-1" {
		t.Errorf("OnRefresh calls = %+v", refreshed)
	}
}

func TestClient_RefreshFailureKeepsToken(t *testing.T) {
	client, ms := newMockClient(t)
	ms.RequireBearer()
	ms.FailTokens(http.StatusBadRequest)
	ms.SetupListing("/oauth/hot", "")

	client.Login(Credentials{AccessToken: "stale", RefreshToken: "refresh-0"})

	_, err := client.GetHot(context.Background(), nil)
	var statusErr *pkgerrs.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("GetHot() error = %v, want 401 StatusError", err)
	}
	if n := ms.GetCallCount("/oauth/hot"); n != 1 {
		t.Errorf("listing calls = %d, want 1", n)
	}
	creds, _ := client.Session()
	if creds.AccessToken != "stale" {
		t.Errorf("AccessToken = %q, want unchanged", creds.AccessToken)
	}
}

func TestClient_Logout(t *testing.T) {
	client, ms := newMockClient(t)
	ms.SetupListing("/hot", "")

	client.Login(Credentials{AccessToken: "tok", RefreshToken: "r"})
	client.Logout()

	if _, err := client.GetHot(context.Background(), nil); err != nil {
		t.Fatalf("GetHot() error = %v", err)
	}
	req, err := ms.GetLastRequest("/hot.json")
	if err != nil {
		t.Fatal(err)
	}
	if req.Headers.Get("Authorization") != "" {
		t.Error("request after logout carried Authorization")
	}
	if _, ok := client.Session(); ok {
		t.Error("Session() still reports logged in")
	}
}

func TestClient_GetComments(t *testing.T) {
	client, ms := newMockClient(t)

	reply := test_helpers.CommentJSON("c2", "bob", "reply", "")
	more := `{"kind":"more","data":{"id":"m1","name":"t1_m1","children":["x1","x2"]}}`
	top := test_helpers.CommentJSON("c1", "alice", "top", test_helpers.ListingJSON("", reply))
	body := "[" + test_helpers.ListingJSON("", test_helpers.PostJSON("abc", "Post", "https://example.com")) + "," +
		test_helpers.ListingJSON("", top, more) + "]"
	ms.SetResponse("/r/test/comments/abc.json", &test_helpers.MockResponse{Status: http.StatusOK, Body: body})

	resp, err := client.GetComments(context.Background(), &types.CommentsRequest{Subreddit: "test", PostID: "t3_abc", Sort: "top"})
	if err != nil {
		t.Fatalf("GetComments() error = %v", err)
	}
	if resp.Post == nil || resp.Post.ID != "abc" {
		t.Errorf("Post = %+v", resp.Post)
	}
	if len(resp.Comments) != 1 || len(resp.Comments[0].Replies) != 1 || resp.Comments[0].Replies[0].Author != "bob" {
		t.Errorf("Comments = %+v", resp.Comments)
	}
	if strings.Join(resp.MoreIDs, ",") != "x1,x2" {
		t.Errorf("MoreIDs = %v", resp.MoreIDs)
	}
	req, _ := ms.GetLastRequest("/r/test/comments/abc.json")
	if req == nil || req.Query.Get("sort") != "top" {
		t.Errorf("comments query = %+v", req)
	}
}

func TestClient_GetCommentsErrors(t *testing.T) {
	client, ms := newMockClient(t)
	ms.SetResponse("/r/test/comments/gone.json", &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   `{"error": 404, "message": "Not Found"}`,
	})

	ctx := context.Background()
	if _, err := client.GetComments(ctx, nil); err == nil {
		t.Error("GetComments(nil) expected error")
	}
	if _, err := client.GetComments(ctx, &types.CommentsRequest{Subreddit: "test"}); err == nil {
		t.Error("GetComments() without PostID expected error")
	}

	_, err := client.GetComments(ctx, &types.CommentsRequest{Subreddit: "test", PostID: "gone"})
	var apiErr *pkgerrs.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("GetComments() error = %v, want APIError", err)
	}
}

func TestClient_GetCommentsMultiple(t *testing.T) {
	client, ms := newMockClient(t)
	for _, id := range []string{"p1", "p2"} {
		body := "[" + test_helpers.ListingJSON("", test_helpers.PostJSON(id, id, "")) + "," + test_helpers.ListingJSON("") + "]"
		ms.SetResponse("/r/test/comments/"+id+".json", &test_helpers.MockResponse{Status: http.StatusOK, Body: body})
	}

	results, err := client.GetCommentsMultiple(context.Background(), []*types.CommentsRequest{
		{Subreddit: "test", PostID: "p1"},
		{Subreddit: "test", PostID: "missing"},
		{Subreddit: "test", PostID: "p2"},
	})
	if err == nil {
		t.Error("GetCommentsMultiple() expected error for missing post")
	}
	if len(results) != 3 || results[0] == nil || results[0].Post.ID != "p1" || results[2] == nil || results[2].Post.ID != "p2" {
		t.Errorf("results = %+v", results)
	}
	if results[1] != nil {
		t.Errorf("results[1] = %+v, want nil", results[1])
	}
}

func TestClient_GetMoreComments(t *testing.T) {
	client, ms := newMockClient(t)
	ms.SetResponse("POST /api/morechildren.json", &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   `{"json":{"errors":[],"data":{"things":[` + test_helpers.CommentJSON("x1", "carol", "more", "") + `]}}}`,
	})

	comments, err := client.GetMoreComments(context.Background(), &types.MoreCommentsRequest{
		LinkID:     "abc",
		CommentIDs: []string{"x1", "x2"},
		Depth:      2,
	})
	if err != nil {
		t.Fatalf("GetMoreComments() error = %v", err)
	}
	if len(comments) != 1 || comments[0].Author != "carol" {
		t.Errorf("comments = %+v", comments)
	}

	req, _ := ms.GetLastRequest("/api/morechildren.json")
	if req == nil {
		t.Fatal("no morechildren request")
	}
	form, _ := url.ParseQuery(req.Body)
	if form.Get("link_id") != "t3_abc" || form.Get("children") != "x1,x2" || form.Get("depth") != "2" || form.Get("api_type") != "json" {
		t.Errorf("form = %v", form)
	}

	empty, err := client.GetMoreComments(context.Background(), &types.MoreCommentsRequest{LinkID: "abc"})
	if err != nil || len(empty) != 0 {
		t.Errorf("GetMoreComments() without IDs = %v, %v", empty, err)
	}
}

func TestClient_ActionsRequireSession(t *testing.T) {
	client, ms := newMockClient(t)
	ctx := context.Background()

	checks := map[string]error{
		"vote":   client.Vote(ctx, "t3_abc", 1),
		"save":   client.Save(ctx, "t3_abc"),
		"unsave": client.Unsave(ctx, "t3_abc"),
	}
	_, meErr := client.Me(ctx)
	checks["me"] = meErr

	for name, err := range checks {
		var stateErr *pkgerrs.StateError
		if !errors.As(err, &stateErr) {
			t.Errorf("%s error = %v, want StateError", name, err)
		}
	}
	if n := len(ms.GetRequestLog()); n != 0 {
		t.Errorf("%d requests sent while logged out", n)
	}
}

func TestClient_Vote(t *testing.T) {
	client, ms := newMockClient(t)
	ms.SetResponse("POST /oauth/api/vote", &test_helpers.MockResponse{Status: http.StatusOK, Body: `{}`})
	client.Login(Credentials{AccessToken: "tok", RefreshToken: "r"})
	ctx := context.Background()

	if err := client.Vote(ctx, "t3_abc", -1); err != nil {
		t.Fatalf("Vote() error = %v", err)
	}
	req, _ := ms.GetLastRequest("/oauth/api/vote")
	if req == nil {
		t.Fatal("no vote request")
	}
	form, _ := url.ParseQuery(req.Body)
	if form.Get("id") != "t3_abc" || form.Get("dir") != "-1" {
		t.Errorf("form = %v", form)
	}
	if req.Headers.Get("Authorization") != "Bearer tok" {
		t.Errorf("Authorization = %q", req.Headers.Get("Authorization"))
	}

	if err := client.Vote(ctx, "t3_abc", 2); err == nil {
		t.Error("Vote(dir=2) expected error")
	}
	if err := client.Vote(ctx, "abc", 1); err == nil {
		t.Error("Vote(bare id) expected error")
	}
}

func TestClient_SaveUnsave(t *testing.T) {
	client, ms := newMockClient(t)
	ms.SetResponse("POST /oauth/api/save", &test_helpers.MockResponse{Status: http.StatusOK, Body: `{}`})
	ms.SetResponse("POST /oauth/api/unsave", &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   `{"json":{"errors":[["THREAD_LOCKED","that thread is locked","id"]]}}`,
	})
	client.Login(Credentials{AccessToken: "tok", RefreshToken: "r"})
	ctx := context.Background()

	if err := client.Save(ctx, "t1_c1"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	err := client.Unsave(ctx, "t1_c1")
	var apiErr *pkgerrs.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode != "THREAD_LOCKED" {
		t.Errorf("Unsave() error = %v, want THREAD_LOCKED APIError", err)
	}
}

func TestClient_Me(t *testing.T) {
	client, ms := newMockClient(t)
	ms.SetResponse("/oauth/api/v1/me", &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   `{"id":"u1","name":"alice","link_karma":12}`,
	})
	client.Login(Credentials{AccessToken: "tok", RefreshToken: "r"})

	me, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if me.Name != "alice" || me.LinkKarma != 12 {
		t.Errorf("Me() = %+v", me)
	}
}

func TestClient_ExchangeCode(t *testing.T) {
	client, ms := newMockClient(t)
	ms.SetResponse("/oauth/api/v1/me", &test_helpers.MockResponse{Status: http.StatusOK, Body: `{"name":"alice"}`})

	creds, err := client.ExchangeCode(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}
	want := Credentials{
		Account:      "alice",
		AccessToken:  "token-1",
		RefreshToken: "refresh-1",
		ClientID:     "test-client",
		RedirectURI:  "http://localhost:8080/callback",
	}
	if creds != want {
		t.Errorf("ExchangeCode() = %+v, want %+v", creds, want)
	}

	req, _ := ms.GetLastRequest(test_helpers.TokenPath)
	form, _ := url.ParseQuery(req.Body)
	if form.Get("grant_type") != "authorization_code" || form.Get("code") != "the-code" {
		t.Errorf("token form = %v", form)
	}
}

func TestClient_ExchangeCodeFailure(t *testing.T) {
	client, ms := newMockClient(t)
	ms.FailTokens(http.StatusUnauthorized)

	_, err := client.ExchangeCode(context.Background(), "bad")
	var authErr *pkgerrs.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("ExchangeCode() error = %v, want AuthError", err)
	}
	if _, ok := client.Session(); ok {
		t.Error("failed exchange left a session")
	}
}

func TestClient_AuthorizationURL(t *testing.T) {
	client, _ := newMockClient(t)

	raw, state := client.AuthorizationURL()
	if _, err := uuid.Parse(state); err != nil {
		t.Errorf("state %q is not a UUID: %v", state, err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	if !strings.HasSuffix(u.Path, "/api/v1/authorize") {
		t.Errorf("path = %q", u.Path)
	}
	q := u.Query()
	if q.Get("client_id") != "test-client" || q.Get("response_type") != "code" || q.Get("state") != state {
		t.Errorf("query = %v", q)
	}
	if q.Get("scope") != strings.Join(DefaultScopes, " ") {
		t.Errorf("scope = %q", q.Get("scope"))
	}

	_, other := client.AuthorizationURL("read")
	if other == state {
		t.Error("AuthorizationURL reused state")
	}
}

func TestClient_GetSubreddit(t *testing.T) {
	client, ms := newMockClient(t)
	ms.SetResponse("/r/golang/about.json", &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   `{"kind":"t5","data":{"display_name":"golang","subscribers":250000,"title":"The Go Programming Language"}}`,
	})

	sub, err := client.GetSubreddit(context.Background(), "golang")
	if err != nil {
		t.Fatalf("GetSubreddit() error = %v", err)
	}
	if sub.DisplayName != "golang" || sub.Subscribers != 250000 {
		t.Errorf("GetSubreddit() = %+v", sub)
	}

	if _, err := client.GetSubreddit(context.Background(), "missing"); err == nil {
		t.Error("GetSubreddit(missing) expected error")
	}
}

func TestClientError(t *testing.T) {
	inner := &pkgerrs.StatusError{StatusCode: 500}
	err := &ClientError{Op: "get listing", Err: inner}
	if got := err.Error(); got != "reddit client error: get listing: bad status: 500" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is did not unwrap ClientError")
	}
}
