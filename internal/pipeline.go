package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
	"github.com/jamesprial/go-reddit-media/pkg/types"
)

const (
	// maxErrorBodyBytes bounds the body prefix kept on a StatusError.
	maxErrorBodyBytes = 512
	// maxTextBodyBytes bounds HTML and script bodies read for scraping.
	maxTextBodyBytes = 8 << 20
)

// Thunk performs one HTTP exchange. It is invoked exactly once by Perform.
type Thunk func() (*http.Response, error)

// Perform runs thunk and folds the exchange into a Result. Transport failures
// become NetworkError, non-2xx statuses become StatusError and bodies that do
// not decode into T become DecodeError. The response body is always closed.
func Perform[T any](thunk Thunk) types.Result[T] {
	resp, err := exchange(thunk)
	if err != nil {
		return types.Fail[T](err)
	}
	defer resp.Body.Close()

	var v T
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&v); err != nil {
		return types.Fail[T](&pkgerrs.DecodeError{Op: "decode", Err: err})
	}
	// the body must hold exactly one JSON value
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return types.Fail[T](&pkgerrs.DecodeError{Op: "decode", Message: "unexpected data after JSON value"})
	}
	return types.Ok(v)
}

// PerformText is Perform for endpoints whose body is consumed as text, such
// as HTML pages and scripts that are scraped with regular expressions.
func PerformText(thunk Thunk) types.Result[string] {
	resp, err := exchange(thunk)
	if err != nil {
		return types.Fail[string](err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextBodyBytes))
	if err != nil {
		return types.Fail[string](&pkgerrs.NetworkError{Op: "read body", URL: requestURL(resp), Err: err})
	}
	return types.Ok(string(body))
}

// exchange runs thunk and rejects transport failures and non-2xx statuses.
// On success the caller owns resp.Body.
func exchange(thunk Thunk) (*http.Response, error) {
	resp, err := thunk()
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		netErr := &pkgerrs.NetworkError{Op: "request", Err: err}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			netErr.URL = urlErr.URL
		}
		return nil, netErr
	}
	if resp == nil {
		return nil, &pkgerrs.NetworkError{Op: "request", Err: errors.New("no response")}
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		prefix, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &pkgerrs.StatusError{
			StatusCode: resp.StatusCode,
			URL:        requestURL(resp),
			Body:       string(prefix),
		}
	}
	return resp, nil
}

func requestURL(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return resp.Request.URL.String()
}

// Get returns a Thunk that issues a GET for rawURL with the given user agent.
func Get(ctx context.Context, client *http.Client, rawURL, userAgent string) Thunk {
	return func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		if userAgent != "" {
			req.Header.Set("User-Agent", userAgent)
		}
		return client.Do(req)
	}
}
