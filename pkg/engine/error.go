package engine

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// maxBodySnippet caps the response body kept on an Error.
const maxBodySnippet = 1024

var (
	// ErrNoToken is returned when neither a preferred named token nor the
	// default token is configured.
	ErrNoToken = errors.New("engine: no suitable token found for the request")

	// ErrClientClosed is returned by calls made after Close.
	ErrClientClosed = errors.New("engine: client is closed")
)

// Error is a non-2xx response from the engine API.
type Error struct {
	// StatusCode is the response status code.
	StatusCode int `json:"status"`

	// Status is the reason phrase, e.g. "Not Found".
	Status string `json:"message"`

	// Body is the start of the response body.
	Body string `json:"body,omitempty"`

	Method string `json:"method"`
	URL    string `json:"url"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("engine: %s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Status)
}

// HTTPStatus returns the response status code.
func (e *Error) HTTPStatus() int { return e.StatusCode }

// StatusMessage returns the reason phrase.
func (e *Error) StatusMessage() string { return e.Status }

// BodySnippet returns the truncated response body.
func (e *Error) BodySnippet() string { return e.Body }

// IsNotFound reports a 404 response.
func (e *Error) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsUnauthorized reports a 401 or 403 response.
func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsServerError reports a 5xx response.
func (e *Error) IsServerError() bool { return e.StatusCode >= 500 }

// Retryable returns true if the request can be retried.
func (e *Error) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.IsServerError()
}

// AsError extracts *Error from an error.
//
// Example:
//
//	if e, ok := engine.AsError(err); ok && e.IsNotFound() {
//	    // request does not exist
//	}
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func newError(resp *http.Response, body []byte) *Error {
	status := http.StatusText(resp.StatusCode)
	if status == "" {
		status = resp.Status
	}
	return &Error{
		StatusCode: resp.StatusCode,
		Status:     status,
		Body:       snippet(body),
		Method:     resp.Request.Method,
		URL:        resp.Request.URL.String(),
	}
}

// snippet returns body cut to at most maxBodySnippet bytes without splitting
// a UTF-8 sequence.
func snippet(body []byte) string {
	if len(body) <= maxBodySnippet {
		return string(body)
	}
	cut := maxBodySnippet
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut])
}
