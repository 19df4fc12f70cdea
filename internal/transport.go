package internal

import (
	"io"
	"log/slog"
	"net/http"
)

// AuthTransport attaches the session's bearer token to outgoing requests and
// recovers from an expired token with one refresh and one replay.
//
// A logical request is sent at most twice. A failed refresh never changes the
// session and the caller sees the original response.
type AuthTransport struct {
	// Base sends the requests. Defaults to http.DefaultTransport.
	Base http.RoundTripper
	// Session is read before every request and updated after a refresh.
	Session *Session
	// Refresher obtains new access tokens.
	Refresher Refresher
	// OnRefresh, if set, receives the credentials after a successful refresh.
	OnRefresh func(Credentials)
	Logger    *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	creds, ok := t.Session.Snapshot()
	if !ok {
		return t.base().RoundTrip(req)
	}

	token := creds.AccessToken
	refreshFailed := false
	if token == "" {
		if refreshed, ok := t.refresh(req, creds, "missing access token"); ok {
			token = refreshed
		} else {
			refreshFailed = true
		}
	}

	resp, err := t.base().RoundTrip(authorize(req, token))
	if err != nil || !rejected(resp) || refreshFailed {
		return resp, err
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		t.logger().Debug("request body cannot be replayed", "url", req.URL.String())
		return resp, nil
	}

	current, ok := t.Session.Snapshot()
	if !ok {
		return resp, nil
	}
	refreshed, ok := t.refresh(req, current, http.StatusText(resp.StatusCode))
	if !ok {
		return resp, nil
	}

	retry := authorize(req, refreshed)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	t.logger().Debug("retrying request with refreshed token", "method", req.Method, "url", req.URL.String())
	return t.base().RoundTrip(retry)
}

// refresh runs one refresh for creds and stores the result. It reports the
// new access token on success.
func (t *AuthTransport) refresh(req *http.Request, creds Credentials, reason string) (string, bool) {
	if t.Refresher == nil {
		return "", false
	}
	token, err := t.Refresher.Refresh(req.Context(), creds)
	if err != nil {
		t.logger().Debug("token refresh failed", "account", creds.Account, "reason", reason, "error", err)
		return "", false
	}

	updated, ok := t.Session.setToken(token.AccessToken, token.RefreshToken)
	if !ok {
		t.logger().Debug("session ended during refresh", "account", creds.Account)
		return "", false
	}
	t.logger().Debug("token refreshed", "account", creds.Account, "reason", reason)
	if t.OnRefresh != nil {
		t.OnRefresh(updated)
	}
	return token.AccessToken, true
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *AuthTransport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// authorize returns a shallow clone of req carrying token. An empty token
// yields an unauthenticated clone.
func authorize(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	if token == "" {
		clone.Header.Del("Authorization")
	} else {
		clone.Header.Set("Authorization", "Bearer "+token)
	}
	return clone
}

func rejected(resp *http.Response) bool {
	return resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden
}
