package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
)

const defaultTokenEndpointPath = "api/v1/access_token"

// Token is a decoded token endpoint response.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, creds Credentials) (*Token, error)
}

// Authenticator talks to Reddit's OAuth token endpoint.
type Authenticator struct {
	client       *http.Client
	clientID     string
	clientSecret string
	redirectURI  string
	userAgent    string
	BaseURL      *url.URL
	tokenURL     *url.URL
	logger       *slog.Logger
}

// NewAuthenticator creates a new authenticator.
// The tokenPath parameter can be an empty string to use the default Reddit token endpoint.
// httpClient must not route through an AuthTransport.
func NewAuthenticator(httpClient *http.Client, clientID, clientSecret, redirectURI, userAgent, baseURL, tokenPath string, logger *slog.Logger) (*Authenticator, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, &pkgerrs.AuthError{Message: "failed to parse base URL", Err: err}
	}
	if !strings.HasSuffix(parsedURL.Path, "/") {
		parsedURL.Path += "/"
	}

	if tokenPath == "" {
		tokenPath = defaultTokenEndpointPath
	}

	resolvedTokenURL, err := parsedURL.Parse(tokenPath)
	if err != nil {
		return nil, &pkgerrs.AuthError{Message: "failed to parse token endpoint path", Err: err}
	}

	return &Authenticator{
		client:       httpClient,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		userAgent:    userAgent,
		BaseURL:      parsedURL,
		tokenURL:     resolvedTokenURL,
		logger:       logger,
	}, nil
}

// ExchangeCode trades an authorization code from the OAuth redirect for a
// token pair.
func (a *Authenticator) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	if code == "" {
		return nil, &pkgerrs.AuthError{Message: "authorization code is empty"}
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.redirectURI)
	return a.requestToken(ctx, a.clientID, form)
}

// Refresh performs the refresh_token grant for creds. The client ID stored
// on the credentials wins over the authenticator's own.
func (a *Authenticator) Refresh(ctx context.Context, creds Credentials) (*Token, error) {
	if creds.RefreshToken == "" {
		return nil, &pkgerrs.AuthError{Message: "no refresh token"}
	}
	clientID := creds.ClientID
	if clientID == "" {
		clientID = a.clientID
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", creds.RefreshToken)
	return a.requestToken(ctx, clientID, form)
}

func (a *Authenticator) requestToken(ctx context.Context, clientID string, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &pkgerrs.AuthError{Message: "failed to create token request", Err: err}
	}

	req.SetBasicAuth(clientID, a.clientSecret)
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	grant := form.Get("grant_type")
	a.logger.Debug("requesting token", "grant_type", grant, "url", a.tokenURL.String())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &pkgerrs.AuthError{Message: "failed to execute token request", Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &pkgerrs.AuthError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to read response body: %w", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &pkgerrs.AuthError{
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
		}
	}

	var token Token
	if err := json.Unmarshal(bodyBytes, &token); err != nil {
		return nil, &pkgerrs.AuthError{
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
			Err:        fmt.Errorf("failed to unmarshal token response: %w", err),
		}
	}

	if token.AccessToken == "" {
		return nil, &pkgerrs.AuthError{
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
			Message:    "access token was empty in response",
		}
	}

	a.logger.Debug("token issued", "grant_type", grant, "scope", token.Scope, "expires_in", token.ExpiresIn)
	return &token, nil
}
