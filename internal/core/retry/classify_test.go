package retry_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/vietddude/retrykit/internal/core/domain"
	"github.com/vietddude/retrykit/internal/core/retry"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect domain.Category
	}{
		{"nil", nil, domain.CategoryUnknown},
		{"failed to fetch", errors.New("Failed to fetch"), domain.CategoryNetwork},
		{"network message", errors.New("Network unreachable"), domain.CategoryNetwork},
		{"econnrefused code", &codedError{"connect failed", "ECONNREFUSED"}, domain.CategoryNetwork},
		{"request timeout", errors.New("Request timeout"), domain.CategoryTimeout},
		{"timed out", errors.New("Operation timed out"), domain.CategoryTimeout},
		{"etimedout code", &codedError{"socket hang", "ETIMEDOUT"}, domain.CategoryTimeout},
		{"rate limit message", errors.New("Rate limit exceeded"), domain.CategoryRateLimit},
		{"429 status", &httpError{"Too many requests", 429}, domain.CategoryRateLimit},
		{"404 status", &httpError{"Not Found", 404}, domain.CategoryNotFound},
		{"404 in message", errors.New("got 404 from upstream"), domain.CategoryNotFound},
		{"module not found", &codedError{"cannot load", "ERR_MODULE_NOT_FOUND"}, domain.CategoryNotFound},
		{"401 status", &httpError{"Unauthorized", 401}, domain.CategoryUnauthorized},
		{"403 status", &httpError{"nope", 403}, domain.CategoryUnauthorized},
		{"forbidden message", errors.New("Forbidden"), domain.CategoryUnauthorized},
		{"400 status", &httpError{"bad", 400}, domain.CategoryValidation},
		{"validation message", errors.New("Validation failed"), domain.CategoryValidation},
		{"unknown", errors.New("Some random error"), domain.CategoryUnknown},
		{"status code fallback", &statusCodeError{"boom", 404}, domain.CategoryNotFound},
		{"wrapped", fmt.Errorf("load user: %w", &httpError{"x", 401}), domain.CategoryUnauthorized},
		{"deadline exceeded", context.DeadlineExceeded, domain.CategoryTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retry.Classify(tt.err); got != tt.expect {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.expect)
			}
		})
	}
}

func TestClassify_Priority(t *testing.T) {
	// network is checked before timeout
	if got := retry.Classify(errors.New("network timeout occurred")); got != domain.CategoryNetwork {
		t.Errorf("expected NETWORK, got %s", got)
	}

	// timeout message wins over a 404 status
	if got := retry.Classify(&httpError{"upstream timed out", 404}); got != domain.CategoryTimeout {
		t.Errorf("expected TIMEOUT, got %s", got)
	}

	// rate limit message wins over a 400 status
	if got := retry.Classify(&httpError{"rate limit hit", 400}); got != domain.CategoryRateLimit {
		t.Errorf("expected RATE_LIMIT, got %s", got)
	}
}

func TestClassify_SyscallErrors(t *testing.T) {
	refused := &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	}
	if got := retry.Classify(refused); got != domain.CategoryNetwork {
		t.Errorf("expected NETWORK for connection refused, got %s", got)
	}

	timedOut := fmt.Errorf("read: %w", syscall.ETIMEDOUT)
	if got := retry.Classify(timedOut); got != domain.CategoryTimeout {
		t.Errorf("expected TIMEOUT for ETIMEDOUT, got %s", got)
	}
}

func TestClassify_Totality(t *testing.T) {
	inputs := []error{
		nil,
		errors.New(""),
		&httpError{},
		&codedError{},
		&statusCodeError{},
		fmt.Errorf("wrapped: %w", errors.New("")),
	}

	for _, err := range inputs {
		got := retry.Classify(err)
		if !got.Valid() {
			t.Errorf("Classify(%#v) returned unknown category %q", err, got)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	for _, c := range domain.Categories() {
		want := c == domain.CategoryNetwork || c == domain.CategoryTimeout || c == domain.CategoryRateLimit
		if got := c.Retryable(); got != want {
			t.Errorf("%s.Retryable() = %v, want %v", c, got, want)
		}
	}

	if !retry.IsRetryable(errors.New("Failed to fetch")) {
		t.Error("expected network error to be retryable")
	}
	if retry.IsRetryable(&httpError{"Validation failed", 400}) {
		t.Error("expected validation error to be terminal")
	}
}

func TestInspect(t *testing.T) {
	shape := retry.Inspect(&httpError{"Not Found", 404})
	if shape.Message != "Not Found" || shape.Status != 404 || shape.Code != "" {
		t.Errorf("unexpected shape: %+v", shape)
	}

	shape = retry.Inspect(&codedError{"refused", "ECONNREFUSED"})
	if shape.Code != "ECONNREFUSED" {
		t.Errorf("expected ECONNREFUSED code, got %q", shape.Code)
	}

	if shape := retry.Inspect(nil); shape != (retry.Shape{}) {
		t.Errorf("expected empty shape for nil, got %+v", shape)
	}
}
