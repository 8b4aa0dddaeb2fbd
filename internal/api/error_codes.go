package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a machine-readable error classification used in JSON output.
type ErrorCode string

const (
	ErrBadRequest          ErrorCode = "bad_request"
	ErrUnauthorized        ErrorCode = "unauthorized"
	ErrForbidden           ErrorCode = "forbidden"
	ErrNotFound            ErrorCode = "not_found"
	ErrValidation          ErrorCode = "validation_failed"
	ErrInsufficientBalance ErrorCode = "insufficient_balance"
	ErrRateLimited         ErrorCode = "rate_limited"
	ErrServerError         ErrorCode = "server_error"
	ErrNetwork             ErrorCode = "network"
	ErrTimeout             ErrorCode = "timeout"
	ErrDecode              ErrorCode = "decode_failed"
	ErrUnknown             ErrorCode = "unknown"
)

// IsRetryable returns true if a manual retry of the same call may succeed.
func (c ErrorCode) IsRetryable() bool {
	switch c {
	case ErrRateLimited, ErrServerError, ErrNetwork, ErrTimeout:
		return true
	default:
		return false
	}
}

// Suggestion returns a human-readable hint for resolving this error.
func (c ErrorCode) Suggestion() string {
	switch c {
	case ErrUnauthorized:
		return "Run 'gamex auth login' to authenticate"
	case ErrForbidden:
		return "This action requires an admin account"
	case ErrNotFound:
		return "Verify the ID exists"
	case ErrValidation:
		return "Check the input values"
	case ErrInsufficientBalance:
		return "Top up your balance with 'gamex deposits create'"
	case ErrBadRequest:
		return "Check the request parameters"
	case ErrRateLimited:
		return "Wait a moment and retry"
	case ErrServerError:
		return "The server encountered an error; try again later"
	case ErrNetwork:
		return "Check your internet connection and retry"
	case ErrTimeout:
		return "The request timed out; check connectivity and retry"
	case ErrDecode:
		return "The server returned an unexpected response; use --debug for details"
	default:
		return ""
	}
}

// ErrorCodeFromStatus maps an HTTP status code to an ErrorCode.
func ErrorCodeFromStatus(statusCode int) ErrorCode {
	switch statusCode {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 422:
		return ErrValidation
	case 429:
		return ErrRateLimited
	default:
		if statusCode >= 500 && statusCode < 600 {
			return ErrServerError
		}
		return ErrUnknown
	}
}

// StructuredError is the JSON shape of an error printed by the CLI.
type StructuredError struct {
	Code          ErrorCode      `json:"code"`
	Message       string         `json:"message"`
	Retryable     bool           `json:"retryable"`
	Suggestion    string         `json:"suggestion,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	AllowedValues []string       `json:"allowed_values,omitempty"`
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// MarshalJSON implements custom JSON marshaling.
func (e *StructuredError) MarshalJSON() ([]byte, error) {
	type Alias StructuredError
	return json.Marshal((*Alias)(e))
}

// NewStructuredError creates a StructuredError from an ErrorCode and message.
func NewStructuredError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:       code,
		Message:    message,
		Retryable:  code.IsRetryable(),
		Suggestion: code.Suggestion(),
	}
}

// NewValidationError reports an input outside a fixed set of values.
func NewValidationError(field string, got string, allowed []string) *StructuredError {
	return &StructuredError{
		Code:          ErrValidation,
		Message:       fmt.Sprintf("invalid %s %q: must be one of %s", field, got, strings.Join(allowed, ", ")),
		Suggestion:    fmt.Sprintf("Use one of: %s", strings.Join(allowed, ", ")),
		AllowedValues: allowed,
		Context:       map[string]any{"field": field, "got": got},
	}
}

// StructuredErrorFromError classifies any error returned by this package.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}

	var authErr *NotAuthenticatedError
	if errors.As(err, &authErr) {
		return NewStructuredError(ErrUnauthorized, authErr.Error())
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		code := ErrorCodeFromStatus(httpErr.StatusCode)
		if IsInsufficientBalance(err) {
			code = ErrInsufficientBalance
		}
		out := NewStructuredError(code, httpErr.Error())
		out.Context = map[string]any{"status_code": httpErr.StatusCode}
		if httpErr.FieldErrors != "" {
			out.Context["field_errors"] = httpErr.FieldErrors
		}
		return out
	}

	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return NewStructuredError(ErrDecode, decErr.Error())
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(netErr.Err) {
			return NewStructuredError(ErrTimeout, netErr.Error())
		}
		return NewStructuredError(ErrNetwork, netErr.Error())
	}

	return &StructuredError{
		Code:    ErrUnknown,
		Message: err.Error(),
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
