// Package retry runs operations with per-attempt timeouts, error
// classification and jittered exponential backoff.
//
// # Quick Start
//
//	user, err := retry.Do(ctx, func(ctx context.Context) (*User, error) {
//	    return client.GetUser(ctx, id)
//	}, retry.WithOperationName("get user"))
//	if err != nil {
//	    return retry.UserMessage(err)
//	}
//
// Each attempt is raced against Config.Timeout. A failed attempt is classified
// (see Classify); terminal categories stop the loop immediately, transient ones
// are retried until MaxRetries attempts have been made. The returned *Error
// keeps the original failure reachable through errors.Is/As.
//
// Run has no deadline of its own across attempts. Bound the whole call with
// the context instead:
//
//	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
//	defer cancel()
//	v, err := retry.Run(ctx, op, cfg)
package retry

import (
	"context"
)

// Operation is a unit of work that may be attempted several times.
// It should honour ctx, which is cancelled when the attempt times out.
type Operation[T any] func(ctx context.Context) (T, error)

// Do executes op with DefaultConfig adjusted by opts.
func Do[T any](ctx context.Context, op Operation[T], opts ...Option) (T, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return Run(ctx, op, cfg)
}

// Run executes op until it succeeds, fails with a terminal category, or
// MaxRetries attempts have been made.
//
// Zero fields of cfg take their defaults, except JitterFactor: a zero
// jitter is kept, so a bare Config{} retries without jitter. Start from
// DefaultConfig to get the default 0.1.
func Run[T any](ctx context.Context, op Operation[T], cfg Config) (T, error) {
	var zero T
	cfg = cfg.normalized()
	clock := cfg.Clock
	start := clock.Now()

	for attempt := 1; ; attempt++ {
		value, err := Race(ctx, op, cfg.Timeout)
		if err == nil {
			cfg.Recorder.Record(ctx, Event{
				Kind:        EventSucceeded,
				Operation:   cfg.OperationName,
				Attempt:     attempt,
				MaxAttempts: cfg.MaxRetries,
				Elapsed:     clock.Now().Sub(start),
				Time:        clock.Now(),
			})
			return value, nil
		}

		// The caller gave up; nothing to classify.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		now := clock.Now()
		category := Classify(err)
		retryable := category.Retryable()
		shape := Inspect(err)

		cfg.Recorder.Record(ctx, Event{
			Kind:        EventAttemptFailed,
			Operation:   cfg.OperationName,
			Attempt:     attempt,
			MaxAttempts: cfg.MaxRetries,
			Category:    category,
			Retryable:   retryable,
			Err:         err,
			Status:      shape.Status,
			Code:        shape.Code,
			Time:        now,
		})

		var terminal *Error
		switch {
		case !retryable:
			terminal = newAbortError(category, err, attempt, cfg.OperationName, now)
		case attempt >= cfg.MaxRetries:
			terminal = newExhaustedError(category, err, attempt, cfg.MaxRetries, cfg.OperationName, now)
		}
		if terminal != nil {
			cfg.Recorder.Record(ctx, Event{
				Kind:        EventGaveUp,
				Operation:   cfg.OperationName,
				Attempt:     attempt,
				MaxAttempts: cfg.MaxRetries,
				Category:    category,
				Retryable:   terminal.Retryable,
				Err:         err,
				Elapsed:     now.Sub(start),
				Time:        now,
			})
			return zero, terminal
		}

		delay := ComputeDelay(attempt, cfg)
		cfg.Recorder.Record(ctx, Event{
			Kind:        EventBackoff,
			Operation:   cfg.OperationName,
			Attempt:     attempt,
			MaxAttempts: cfg.MaxRetries,
			Category:    category,
			Retryable:   true,
			Err:         err,
			Delay:       delay,
			Time:        now,
		})

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		if err := clock.Sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}
