package graw

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jamesprial/go-reddit-media/internal"
	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
	"github.com/jamesprial/go-reddit-media/pkg/media"
	"github.com/jamesprial/go-reddit-media/pkg/types"
)

const (
	// DefaultBaseURL is the OAuth API host used while logged in.
	DefaultBaseURL = "https://oauth.reddit.com/"
	// DefaultPublicBaseURL serves the public ".json" pages used while logged out.
	DefaultPublicBaseURL = "https://www.reddit.com/"
	// DefaultAuthURL hosts the authorize page and the token endpoint.
	DefaultAuthURL = "https://www.reddit.com/"
	// DefaultUserAgent is the default user agent string
	DefaultUserAgent = "go-reddit-media/0.1"
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second
	// DefaultResolveConcurrency bounds ResolveAll.
	DefaultResolveConcurrency = 4
)

// DefaultScopes are requested by AuthorizationURL when none are given.
var DefaultScopes = []string{"identity", "read", "vote", "save", "history", "mysubreddits"}

// Credentials is the token state of a logged-in account.
type Credentials = internal.Credentials

// RateLimitConfig throttles requests to the Reddit API.
type RateLimitConfig = internal.RateLimitConfig

// Config holds the configuration for the Reddit client.
//
// Only ClientID is required. ClientSecret is empty for installed apps and set
// for web apps. RedirectURI must match the app registration to use the
// authorization code flow.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// UserAgent string to identify your application to Reddit.
	// Should follow format: "platform:app-name:version (by /u/username)"
	UserAgent string

	// BaseURL for the OAuth API. Defaults to DefaultBaseURL.
	BaseURL string
	// PublicBaseURL for logged-out requests. Defaults to DefaultPublicBaseURL.
	PublicBaseURL string
	// AuthURL for the authorize page and token endpoint. Defaults to DefaultAuthURL.
	AuthURL string

	// HTTPClient to use for requests.
	// Defaults to a client with DefaultTimeout if not specified. Its
	// transport is wrapped for Reddit API calls; media providers and the
	// token endpoint use it unwrapped.
	HTTPClient *http.Client

	// Logger for structured diagnostics. Nil discards.
	Logger *slog.Logger

	// RateLimit overrides the API rate limiter. Nil uses the defaults.
	RateLimit *RateLimitConfig

	// Media overrides provider endpoints. Zero fields use the public hosts.
	Media media.Endpoints

	// ResolveConcurrency bounds concurrent resolutions in ResolveAll.
	// Defaults to DefaultResolveConcurrency.
	ResolveConcurrency int

	// OnRefresh is called with the new credentials after every successful
	// token refresh, so callers can persist rotated tokens.
	OnRefresh func(Credentials)
}

// Client is the main Reddit API client. It is safe for concurrent use.
//
// A new client is logged out: listings and comments are served from the
// public ".json" pages. Login or ExchangeCode attach an OAuth session, after
// which requests go to the OAuth host with a bearer token that is refreshed
// transparently.
type Client struct {
	api       *internal.Client
	auth      *internal.Authenticator
	session   *internal.Session
	resolver  *media.Resolver
	parser    *internal.Parser
	validator *internal.Validator
	config    *Config
	logger    *slog.Logger
}

// NewClient creates a new Reddit client with the provided configuration.
// Defaults are filled into config in place.
//
// Returns an error if config is nil, ClientID is missing, the user agent is
// invalid or one of the URLs does not parse.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, &ClientError{Op: "new client", Err: &pkgerrs.ConfigError{Field: "config", Message: "config cannot be nil"}}
	}
	if config.ClientID == "" {
		return nil, &ClientError{Op: "new client", Err: &pkgerrs.ConfigError{Field: "ClientID", Message: "ClientID is required"}}
	}

	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.PublicBaseURL == "" {
		config.PublicBaseURL = DefaultPublicBaseURL
	}
	if config.AuthURL == "" {
		config.AuthURL = DefaultAuthURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if config.ResolveConcurrency <= 0 {
		config.ResolveConcurrency = DefaultResolveConcurrency
	}

	validator := internal.NewValidator()
	if err := validator.ValidateUserAgent(config.UserAgent); err != nil {
		return nil, &ClientError{Op: "new client", Err: err}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	auth, err := internal.NewAuthenticator(
		config.HTTPClient,
		config.ClientID,
		config.ClientSecret,
		config.RedirectURI,
		config.UserAgent,
		config.AuthURL,
		"",
		logger,
	)
	if err != nil {
		return nil, &ClientError{Op: "new client", Err: err}
	}

	session := internal.NewSession()
	apiHTTP := *config.HTTPClient
	apiHTTP.Transport = &internal.AuthTransport{
		Base:      config.HTTPClient.Transport,
		Session:   session,
		Refresher: auth,
		OnRefresh: config.OnRefresh,
		Logger:    logger,
	}

	api, err := internal.NewClient(&apiHTTP, session, config.BaseURL, config.PublicBaseURL, config.UserAgent, config.RateLimit, logger)
	if err != nil {
		return nil, &ClientError{Op: "new client", Err: err}
	}

	return &Client{
		api:       api,
		auth:      auth,
		session:   session,
		resolver:  media.NewResolver(config.HTTPClient, config.Media, config.UserAgent, logger),
		parser:    internal.NewParser(),
		validator: validator,
		config:    config,
		logger:    logger,
	}, nil
}

// Login attaches an account. Empty ClientID and RedirectURI are taken from
// the config. An empty AccessToken is fetched with the refresh token on the
// first request.
func (c *Client) Login(creds Credentials) {
	if creds.ClientID == "" {
		creds.ClientID = c.config.ClientID
	}
	if creds.RedirectURI == "" {
		creds.RedirectURI = c.config.RedirectURI
	}
	c.session.Login(creds)
	c.logger.Debug("session login", "account", creds.Account)
}

// Logout drops the session. Later requests are sent without authorization.
func (c *Client) Logout() {
	c.session.Logout()
	c.logger.Debug("session logout")
}

// Session returns a copy of the current credentials and whether a session
// is attached.
func (c *Client) Session() (Credentials, bool) {
	return c.session.Snapshot()
}

// AuthorizationURL builds the page a user visits to grant access. The
// returned state must be compared with the one Reddit sends back to the
// redirect URI. With no scopes, DefaultScopes are requested.
func (c *Client) AuthorizationURL(scopes ...string) (authURL, state string) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	state = uuid.NewString()

	q := url.Values{}
	q.Set("client_id", c.config.ClientID)
	q.Set("response_type", "code")
	q.Set("state", state)
	q.Set("redirect_uri", c.config.RedirectURI)
	q.Set("duration", "permanent")
	q.Set("scope", strings.Join(scopes, " "))

	return strings.TrimSuffix(c.config.AuthURL, "/") + "/api/v1/authorize?" + q.Encode(), state
}

// ExchangeCode trades an authorization code for tokens, logs the account in
// and looks up its name. The session stays attached even when the name
// lookup fails.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Credentials, error) {
	token, err := c.auth.ExchangeCode(ctx, code)
	if err != nil {
		return Credentials{}, &ClientError{Op: "exchange code", Err: err}
	}

	c.Login(Credentials{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken})

	if me, err := c.Me(ctx); err != nil {
		c.logger.Warn("account lookup failed", "error", err)
	} else {
		creds, _ := c.session.Snapshot()
		creds.Account = me.Name
		c.session.Login(creds)
	}

	creds, _ := c.session.Snapshot()
	return creds, nil
}

// Me returns information about the logged-in account.
func (c *Client) Me(ctx context.Context) (*types.AccountData, error) {
	if err := c.requireSession("me"); err != nil {
		return nil, err
	}

	raw, err := fetch[json.RawMessage](ctx, c, "me", http.MethodGet, "api/v1/me", nil, nil)
	if err != nil {
		return nil, err
	}

	// api/v1/me answers with the bare account object; other hosts wrap it
	// in a t2 thing.
	var thing types.Thing
	if err := json.Unmarshal(raw, &thing); err == nil && thing.Kind != "" {
		account, err := c.parser.ParseAccount(&thing)
		if err != nil {
			return nil, &ClientError{Op: "me", Err: err}
		}
		return account, nil
	}

	var account types.AccountData
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, &ClientError{Op: "me", Err: &pkgerrs.DecodeError{Op: "parse account", Err: err}}
	}
	return &account, nil
}

// GetSubreddit retrieves information about a specific subreddit.
//
// Parameters:
//   - name: The subreddit name without the "r/" prefix (e.g., "golang", "programming")
func (c *Client) GetSubreddit(ctx context.Context, name string) (*types.SubredditData, error) {
	if err := c.validator.ValidateSubredditName(name); err != nil {
		return nil, &ClientError{Op: "get subreddit", Err: err}
	}

	thing, err := fetch[types.Thing](ctx, c, "get subreddit", http.MethodGet, "r/"+name+"/about", nil, nil)
	if err != nil {
		return nil, err
	}

	subreddit, err := c.parser.ParseSubreddit(&thing)
	if err != nil {
		return nil, &ClientError{Op: "get subreddit", Err: err}
	}
	return subreddit, nil
}

// Listing sort orders accepted by GetListing.
const (
	SortHot           = "hot"
	SortNew           = "new"
	SortTop           = "top"
	SortRising        = "rising"
	SortControversial = "controversial"
)

// GetHot retrieves hot posts from a subreddit or, with a nil request or an
// empty Subreddit, the front page.
func (c *Client) GetHot(ctx context.Context, request *types.PostsRequest) (*types.PostsResponse, error) {
	return c.GetListing(ctx, SortHot, request)
}

// GetNew retrieves new posts, most recent first.
func (c *Client) GetNew(ctx context.Context, request *types.PostsRequest) (*types.PostsResponse, error) {
	return c.GetListing(ctx, SortNew, request)
}

// GetTop retrieves top posts within request.TimeFilter.
func (c *Client) GetTop(ctx context.Context, request *types.PostsRequest) (*types.PostsResponse, error) {
	return c.GetListing(ctx, SortTop, request)
}

// GetRising retrieves rising posts.
func (c *Client) GetRising(ctx context.Context, request *types.PostsRequest) (*types.PostsResponse, error) {
	return c.GetListing(ctx, SortRising, request)
}

// GetListing retrieves one page of a listing. The After cursor of the
// returned page is passed back verbatim in request.After to fetch the next
// page; an empty cursor requests the first page and an empty AfterFullname
// marks the last one.
func (c *Client) GetListing(ctx context.Context, sort string, request *types.PostsRequest) (*types.PostsResponse, error) {
	const op = "get listing"
	if err := c.validator.ValidateSort(sort); err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}

	var req types.PostsRequest
	if request != nil {
		req = *request
	}
	if req.Subreddit != "" {
		if err := c.validator.ValidateSubredditName(req.Subreddit); err != nil {
			return nil, &ClientError{Op: op, Err: err}
		}
	}
	if err := c.validator.ValidatePagination(&req.Pagination); err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}
	if err := c.validator.ValidateTimeFilter(req.TimeFilter); err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}

	path := sort
	if req.Subreddit != "" {
		path = "r/" + req.Subreddit + "/" + sort
	}

	q := paginationQuery(req.Pagination)
	if req.TimeFilter != "" && (sort == SortTop || sort == SortControversial) {
		q.Set("t", req.TimeFilter)
	}

	thing, err := fetch[types.Thing](ctx, c, op, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}

	page, err := c.parser.ExtractPostsPage(&thing)
	if err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}
	return page, nil
}

// GetComments retrieves a post and its comment tree. Replies are nested
// under their parent; MoreIDs lists truncated comments that GetMoreComments
// can load. Post may be nil when Reddit returns only the comment listing.
func (c *Client) GetComments(ctx context.Context, request *types.CommentsRequest) (*types.CommentsResponse, error) {
	const op = "get comments"
	if request == nil {
		return nil, &ClientError{Op: op, Err: &pkgerrs.ConfigError{Field: "request", Message: "comments request cannot be nil"}}
	}
	if request.Subreddit == "" || request.PostID == "" {
		return nil, &ClientError{Op: op, Err: &pkgerrs.ConfigError{Field: "request", Message: "subreddit and postID are required"}}
	}
	if err := c.validator.ValidateSubredditName(request.Subreddit); err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}
	if err := c.validator.ValidatePagination(&request.Pagination); err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}

	q := paginationQuery(request.Pagination)
	if request.Sort != "" {
		q.Set("sort", request.Sort)
	}

	postID := strings.TrimPrefix(request.PostID, "t3_")
	raw, err := fetch[json.RawMessage](ctx, c, op, http.MethodGet, "r/"+request.Subreddit+"/comments/"+postID, q, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.parser.ParseCommentsResponse(raw)
	if err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}
	return resp, nil
}

// GetCommentsMultiple loads comments for several posts in parallel and
// returns them in request order. Every request runs to completion; the
// first error is returned alongside the successful responses.
func (c *Client) GetCommentsMultiple(ctx context.Context, requests []*types.CommentsRequest) ([]*types.CommentsResponse, error) {
	results := make([]*types.CommentsResponse, len(requests))
	var g errgroup.Group
	g.SetLimit(c.config.ResolveConcurrency)
	for i, req := range requests {
		g.Go(func() error {
			resp, err := c.GetComments(ctx, req)
			results[i] = resp
			return err
		})
	}
	return results, g.Wait()
}

// GetMoreComments loads comments that were truncated from a thread, using
// the IDs found in CommentsResponse.MoreIDs. The "t3_" prefix is added to
// LinkID when missing.
func (c *Client) GetMoreComments(ctx context.Context, request *types.MoreCommentsRequest) ([]*types.Comment, error) {
	const op = "get more comments"
	if request == nil {
		return nil, &ClientError{Op: op, Err: &pkgerrs.ConfigError{Field: "request", Message: "more comments request cannot be nil"}}
	}
	linkID, err := c.validator.ValidateLinkID(request.LinkID)
	if err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}
	if len(request.CommentIDs) == 0 {
		return []*types.Comment{}, nil
	}
	if err := c.validator.ValidateCommentIDs(request.CommentIDs); err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}

	form := url.Values{}
	form.Set("link_id", linkID)
	form.Set("children", strings.Join(request.CommentIDs, ","))
	form.Set("api_type", "json")
	if request.Sort != "" {
		form.Set("sort", request.Sort)
	}
	if request.Depth > 0 {
		form.Set("depth", strconv.Itoa(request.Depth))
	}
	if request.Limit > 0 {
		form.Set("limit_children", strconv.Itoa(request.Limit))
	}

	raw, err := fetch[json.RawMessage](ctx, c, op, http.MethodPost, "api/morechildren", nil, form)
	if err != nil {
		return nil, err
	}

	comments, _, err := c.parser.ParseMoreChildren(raw)
	if err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}
	return comments, nil
}

// Vote casts a vote on a post or comment: 1 upvotes, -1 downvotes and 0
// clears the vote. It requires a logged-in session.
func (c *Client) Vote(ctx context.Context, fullname string, dir int) error {
	const op = "vote"
	if err := c.requireSession(op); err != nil {
		return err
	}
	if err := c.validator.ValidateFullname(fullname); err != nil {
		return &ClientError{Op: op, Err: err}
	}
	if err := c.validator.ValidateVoteDirection(dir); err != nil {
		return &ClientError{Op: op, Err: err}
	}

	form := url.Values{}
	form.Set("id", fullname)
	form.Set("dir", strconv.Itoa(dir))
	return c.action(ctx, op, "api/vote", form)
}

// Save saves a post or comment to the account.
func (c *Client) Save(ctx context.Context, fullname string) error {
	return c.saveAction(ctx, "save", "api/save", fullname)
}

// Unsave removes a post or comment from the saved list.
func (c *Client) Unsave(ctx context.Context, fullname string) error {
	return c.saveAction(ctx, "unsave", "api/unsave", fullname)
}

func (c *Client) saveAction(ctx context.Context, op, path, fullname string) error {
	if err := c.requireSession(op); err != nil {
		return err
	}
	if err := c.validator.ValidateFullname(fullname); err != nil {
		return &ClientError{Op: op, Err: err}
	}
	form := url.Values{}
	form.Set("id", fullname)
	return c.action(ctx, op, path, form)
}

// action posts form to an endpoint that answers with an empty object or a
// json.errors envelope.
func (c *Client) action(ctx context.Context, op, path string, form url.Values) error {
	raw, err := fetch[json.RawMessage](ctx, c, op, http.MethodPost, path, nil, form)
	if err != nil {
		return err
	}
	if err := c.parser.ParseActionErrors(raw); err != nil {
		return &ClientError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) requireSession(op string) error {
	if c.session.LoggedIn() {
		return nil
	}
	return &ClientError{Op: op, Err: &pkgerrs.StateError{Operation: op, Message: "not logged in"}}
}

// fetch builds a request for path, sends it through the API client and
// decodes the JSON body into T. A non-nil form is sent as the request body.
func fetch[T any](ctx context.Context, c *Client, op, method, path string, query, form url.Values) (T, error) {
	var zero T
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := c.api.NewRequest(ctx, method, path, body)
	if err != nil {
		return zero, &ClientError{Op: op, Err: err}
	}

	if query == nil {
		query = url.Values{}
	}
	// raw_json disables the legacy HTML escaping of &, < and > in strings.
	query.Set("raw_json", "1")
	req.URL.RawQuery = query.Encode()

	v, err := internal.Fetch[T](c.api, req).Get()
	if err != nil {
		return zero, &ClientError{Op: op, Err: err}
	}
	return v, nil
}

func paginationQuery(p types.Pagination) url.Values {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.After != "" {
		q.Set("after", p.After)
	}
	if p.Before != "" {
		q.Set("before", p.Before)
	}
	return q
}

// ClientError represents an error from the Reddit client. Err is one of the
// typed errors in pkg/errors and can be matched with errors.As.
type ClientError struct {
	// Op names the client operation that failed, e.g. "get listing"
	Op string
	// Err is the underlying error
	Err error
}

// Error implements the error interface for ClientError.
// It returns a formatted error message prefixed with "reddit client error: ".
func (e *ClientError) Error() string {
	if e.Op == "" {
		return "reddit client error: " + e.Err.Error()
	}
	return "reddit client error: " + e.Op + ": " + e.Err.Error()
}

func (e *ClientError) Unwrap() error {
	return e.Err
}
