package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorCodeFromStatus(t *testing.T) {
	tests := map[int]ErrorCode{
		400: ErrBadRequest,
		401: ErrUnauthorized,
		403: ErrForbidden,
		404: ErrNotFound,
		422: ErrValidation,
		429: ErrRateLimited,
		500: ErrServerError,
		503: ErrServerError,
		418: ErrUnknown,
	}
	for status, want := range tests {
		if got := ErrorCodeFromStatus(status); got != want {
			t.Errorf("ErrorCodeFromStatus(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestErrorCodeIsRetryable(t *testing.T) {
	retryable := []ErrorCode{ErrRateLimited, ErrServerError, ErrNetwork, ErrTimeout}
	for _, c := range retryable {
		if !c.IsRetryable() {
			t.Errorf("%s should be retryable", c)
		}
	}
	for _, c := range []ErrorCode{ErrUnauthorized, ErrNotFound, ErrValidation, ErrInsufficientBalance, ErrDecode} {
		if c.IsRetryable() {
			t.Errorf("%s should not be retryable", c)
		}
	}
}

func TestErrorCodeSuggestion(t *testing.T) {
	if !strings.Contains(ErrUnauthorized.Suggestion(), "gamex auth login") {
		t.Errorf("unauthorized suggestion = %q", ErrUnauthorized.Suggestion())
	}
	if !strings.Contains(ErrInsufficientBalance.Suggestion(), "deposits create") {
		t.Errorf("insufficient balance suggestion = %q", ErrInsufficientBalance.Suggestion())
	}
	if ErrUnknown.Suggestion() != "" {
		t.Error("unknown has no suggestion")
	}
}

func TestStructuredErrorJSON(t *testing.T) {
	se := NewStructuredError(ErrNetwork, "network error: dial tcp")
	data, err := json.Marshal(se)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["code"] != "network" || got["retryable"] != true {
		t.Errorf("unexpected JSON: %s", data)
	}
	if _, ok := got["context"]; ok {
		t.Errorf("empty context should be omitted: %s", data)
	}
	if se.Error() != "[network] network error: dial tcp" {
		t.Errorf("Error() = %q", se.Error())
	}
}

func TestNewValidationError(t *testing.T) {
	se := NewValidationError("payment method", "gopay", []string{"qris"})
	if se.Code != ErrValidation {
		t.Errorf("Code = %s", se.Code)
	}
	if !strings.Contains(se.Message, `"gopay"`) || !strings.Contains(se.Message, "qris") {
		t.Errorf("Message = %q", se.Message)
	}
	if se.Context["field"] != "payment method" {
		t.Errorf("Context = %v", se.Context)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestStructuredErrorFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"not authenticated", &NotAuthenticatedError{}, ErrUnauthorized},
		{"insufficient balance", &HTTPError{Op: opCreateTransaction, StatusCode: 422, Message: "Saldo tidak mencukupi"}, ErrInsufficientBalance},
		{"validation", &HTTPError{Op: "auth.register", StatusCode: 422}, ErrValidation},
		{"not found", fmt.Errorf("wrap: %w", &HTTPError{StatusCode: 404}), ErrNotFound},
		{"server", &HTTPError{StatusCode: 502}, ErrServerError},
		{"decode", &DecodeError{Err: errors.New("bad")}, ErrDecode},
		{"network", &NetworkError{Err: errors.New("connection refused")}, ErrNetwork},
		{"timeout", &NetworkError{Err: timeoutErr{}}, ErrTimeout},
		{"deadline", &NetworkError{Err: context.DeadlineExceeded}, ErrTimeout},
		{"other", errors.New("boom"), ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StructuredErrorFromError(tt.err)
			if got.Code != tt.want {
				t.Errorf("Code = %s, want %s", got.Code, tt.want)
			}
		})
	}

	if StructuredErrorFromError(nil) != nil {
		t.Error("nil error should map to nil")
	}
	se := NewStructuredError(ErrForbidden, "admin only")
	if StructuredErrorFromError(fmt.Errorf("x: %w", se)) != se {
		t.Error("existing StructuredError should pass through")
	}
	httpSE := StructuredErrorFromError(&HTTPError{StatusCode: 404})
	if httpSE.Context["status_code"] != 404 {
		t.Errorf("status_code context = %v", httpSE.Context)
	}
}
