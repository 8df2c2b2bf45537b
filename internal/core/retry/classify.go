package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/vietddude/retrykit/internal/core/domain"
)

// Well-known codes recognised by Classify.
const (
	CodeConnRefused    = "ECONNREFUSED"
	CodeTimedOut       = "ETIMEDOUT"
	CodeModuleNotFound = "ERR_MODULE_NOT_FOUND"
)

// Shape is the classification-relevant view of an error.
type Shape struct {
	Message string
	Code    string
	Status  int
}

type coder interface {
	Code() string
}

type statuser interface {
	Status() int
}

type statusCoder interface {
	StatusCode() int
}

// Inspect extracts message, code and status from anywhere in err's chain.
// Status() is preferred over StatusCode().
func Inspect(err error) Shape {
	if err == nil {
		return Shape{}
	}

	shape := Shape{
		Message: err.Error(),
		Code:    extractCode(err),
	}

	var s statuser
	var sc statusCoder
	switch {
	case errors.As(err, &s):
		shape.Status = s.Status()
	case errors.As(err, &sc):
		shape.Status = sc.StatusCode()
	}

	return shape
}

func extractCode(err error) string {
	var c coder
	if errors.As(err, &c) {
		if code := c.Code(); code != "" {
			return code
		}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return CodeConnRefused
	}
	if errors.Is(err, syscall.ETIMEDOUT) || errors.Is(err, context.DeadlineExceeded) {
		return CodeTimedOut
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimedOut
	}

	return ""
}

// Classify maps an arbitrary error to exactly one category.
// Rules are checked in a fixed order and the first match wins.
func Classify(err error) domain.Category {
	if err == nil {
		return domain.CategoryUnknown
	}

	var terminal *Error
	if errors.As(err, &terminal) && terminal.Category.Valid() {
		return terminal.Category
	}

	shape := Inspect(err)
	return classifyShape(strings.ToLower(shape.Message), shape.Code, shape.Status)
}

func classifyShape(msg, code string, status int) domain.Category {
	switch {
	case strings.Contains(msg, "network") || strings.Contains(msg, "failed to fetch") ||
		code == CodeConnRefused:
		return domain.CategoryNetwork

	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") ||
		code == CodeTimedOut:
		return domain.CategoryTimeout

	case status == 429 || strings.Contains(msg, "rate limit"):
		return domain.CategoryRateLimit

	case status == 404 || strings.Contains(msg, "404") || code == CodeModuleNotFound:
		return domain.CategoryNotFound

	case status == 401 || status == 403 ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "forbidden"):
		return domain.CategoryUnauthorized

	case status == 400 || strings.Contains(msg, "validation"):
		return domain.CategoryValidation
	}

	return domain.CategoryUnknown
}

// IsRetryable reports whether err belongs to a transient category.
func IsRetryable(err error) bool {
	return Classify(err).Retryable()
}
