package api

import (
	"errors"
	"fmt"
	"net/http"
)

// NotAuthenticatedError is returned before any network call when the session
// holds no token, or when the session store could not be read (Err).
type NotAuthenticatedError struct {
	Err error
}

func (e *NotAuthenticatedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("not authenticated: session unreadable: %v", e.Err)
	}
	return "not authenticated"
}

func (e *NotAuthenticatedError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a transport or timeout failure.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a response outside the accepted status range for an operation.
// Message is taken from the body's "message" (or "error") field when present.
type HTTPError struct {
	Op         string
	StatusCode int
	Message    string
	// FieldErrors holds Laravel's per-field validation errors, one
	// "  field: reason" line each, sorted. Empty when the body had none.
	FieldErrors string
	Body        string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Error: %d", e.StatusCode)
	}
	return fmt.Sprintf("Error: %d - %s", e.StatusCode, e.Message)
}

// DecodeError reports a response body that is not valid JSON for the
// expected shape.
type DecodeError struct {
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unexpected API response format (JSON decode failed): %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNotAuthenticated reports whether err is a NotAuthenticatedError.
func IsNotAuthenticated(err error) bool {
	var e *NotAuthenticatedError
	return errors.As(err, &e)
}

// IsNetworkError reports whether err is a NetworkError.
func IsNetworkError(err error) bool {
	var e *NetworkError
	return errors.As(err, &e)
}

// IsDecodeError reports whether err is a DecodeError.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *HTTPError
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// IsNotFoundError reports a 404 from the backend.
func IsNotFoundError(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsInsufficientBalance reports the 422 the backend returns from transaction
// creation when the order costs more than the wallet holds. A 422 from any
// other call is an ordinary validation failure.
func IsInsufficientBalance(err error) bool {
	var e *HTTPError
	return errors.As(err, &e) && e.Op == opCreateTransaction && e.StatusCode == http.StatusUnprocessableEntity
}

// IsHTTPError reports whether err carries an HTTP status from the backend.
func IsHTTPError(err error) bool {
	var e *HTTPError
	return errors.As(err, &e)
}
