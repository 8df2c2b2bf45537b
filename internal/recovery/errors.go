package recovery

import (
	"github.com/vietddude/retrykit/internal/core/domain"
)

// Error is returned by Handle when an operation could not be completed.
// It unwraps to the underlying failure, usually a *retry.Error.
type Error struct {
	UserMessage string
	EntryID     string
	Context     domain.ErrorContext
	Severity    domain.Severity
	// Transient is true when the failure category is retryable.
	Transient bool
	// Recovered is true when the rollback hook restored the previous state.
	Recovered bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.UserMessage
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
