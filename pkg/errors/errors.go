// Package errors defines the error taxonomy shared by the media resolvers,
// the request pipeline and the authenticated Reddit client.
//
// Every failure that crosses the core boundary is one of these types. Callers
// that only need a display string can use Error(); callers that need to
// discriminate can use errors.As.
package errors

import (
	"fmt"
	"strings"
)

// joinParts joins error message parts with the specified separator.
func joinParts(parts []string, sep string) string {
	return strings.Join(parts, sep)
}

// ConfigError indicates a problem with the client configuration or with a
// request parameter supplied by the caller.
type ConfigError struct {
	// Field contains the name of the configuration field that caused the error
	Field string
	// Message contains the detailed error message
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// NetworkError is a transport-level failure: DNS, dial, TLS, timeout,
// connection reset. The message is the stringified underlying error.
type NetworkError struct {
	// Op names the hop that failed (e.g. "streamable", "imgur home")
	Op string
	// URL is the request URL, if known
	URL string
	// Err is the transport error
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return "network error"
	}
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is a response whose status code is outside the 2xx range.
// The message always contains the numeric code verbatim.
type StatusError struct {
	StatusCode int
	URL        string
	// Body holds a bounded prefix of the response body for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %d", e.StatusCode)
}

// DecodeError means the response body did not match the expected shape.
type DecodeError struct {
	Op string
	// Message is used when there is no underlying decoder error
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "decode failed"
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ExtractionError means a scrape over an HTML page or script found no match.
type ExtractionError struct {
	Op      string
	Message string
}

func (e *ExtractionError) Error() string {
	return e.Message
}

// AuthError indicates a failure at the token endpoint.
type AuthError struct {
	// StatusCode is the HTTP status code (if from an HTTP response)
	StatusCode int
	// Message contains the detailed error message
	Message string
	// Body contains the raw response body (if available)
	Body string
	// Err contains the underlying error if available
	Err error
}

func (e *AuthError) Error() string {
	var parts []string
	parts = append(parts, "auth error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status code %d", e.StatusCode))
	}

	if e.Body != "" {
		parts = append(parts, fmt.Sprintf("body: %q", e.Body))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Err != nil {
		parts = append(parts, fmt.Sprintf("err: %v", e.Err))
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + ": " + joinParts(parts[1:], ", ")
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// StateError indicates an operation was attempted when the client is not ready,
// for example a vote without a logged-in session.
type StateError struct {
	// Operation is the name of the operation that was attempted
	Operation string
	// Message contains the detailed error message
	Message string
}

func (e *StateError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("state error during %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("state error: %s", e.Message)
}

// APIError represents an error payload returned by the Reddit API inside a
// successful HTTP response (e.g. the json.errors array of api endpoints).
type APIError struct {
	// ErrorCode is the error code from Reddit (if available)
	ErrorCode string
	// Message is the error message from Reddit
	Message string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("reddit API error (code %s): %s", e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("reddit API error: %s", e.Message)
}
