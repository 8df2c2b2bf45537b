package retry

import (
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/retrykit/internal/core/domain"
)

// Error is the terminal error returned by Run when it gives up.
type Error struct {
	Category domain.Category
	// Retryable is false when the category itself is terminal and true when
	// the attempt budget ran out on a transient failure.
	Retryable     bool
	Err           error
	Attempts      int
	LastAttemptAt time.Time
	Operation     string

	msg string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the category as a string code.
func (e *Error) Code() string {
	return string(e.Category)
}

// AsError finds a terminal retry error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func causeMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "Unknown error"
	}
	return err.Error()
}

func newAbortError(category domain.Category, cause error, attempt int, op string, at time.Time) *Error {
	return &Error{
		Category:      category,
		Retryable:     false,
		Err:           cause,
		Attempts:      attempt,
		LastAttemptAt: at,
		Operation:     op,
		msg:           fmt.Sprintf("[%s] %s", category, causeMessage(cause)),
	}
}

func newExhaustedError(
	category domain.Category,
	cause error,
	attempt, maxRetries int,
	op string,
	at time.Time,
) *Error {
	return &Error{
		Category:      category,
		Retryable:     true,
		Err:           cause,
		Attempts:      attempt,
		LastAttemptAt: at,
		Operation:     op,
		msg:           fmt.Sprintf("%s failed after %d attempts: %s", op, maxRetries, causeMessage(cause)),
	}
}
