package retry

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError is returned when an attempt outlives its timeout.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Operation timed out after %dms", e.Timeout.Milliseconds())
}

// Code implements the code lookup used by Classify.
func (e *TimeoutError) Code() string {
	return CodeTimedOut
}

// Race runs op against a timer. When the timer wins, the context handed to op
// is cancelled and a *TimeoutError is returned; whatever op produces later is
// discarded. The result channel is buffered so the losing goroutine never blocks.
func Race[T any](ctx context.Context, op Operation[T], timeout time.Duration) (T, error) {
	var zero T

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("operation panicked: %v", r)}
			}
		}()
		v, err := op(attemptCtx)
		done <- result{value: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.value, r.err
	case <-timer.C:
		return zero, &TimeoutError{Timeout: timeout}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
