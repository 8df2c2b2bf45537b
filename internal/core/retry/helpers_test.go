package retry_test

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/retrykit/internal/core/retry"
)

// fakeClock records sleeps without actually sleeping.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// captureRecorder keeps every event it sees.
type captureRecorder struct {
	mu     sync.Mutex
	events []retry.Event
}

func (r *captureRecorder) Record(_ context.Context, ev retry.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *captureRecorder) Kinds() []retry.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]retry.EventKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func (r *captureRecorder) Count(kind retry.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// httpError mimics an error returned by an HTTP client library.
type httpError struct {
	msg    string
	status int
}

func (e *httpError) Error() string { return e.msg }
func (e *httpError) Status() int   { return e.status }

// codedError carries a string code like a Node-style system error.
type codedError struct {
	msg  string
	code string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() string  { return e.code }

// statusCodeError only exposes StatusCode.
type statusCodeError struct {
	msg  string
	code int
}

func (e *statusCodeError) Error() string   { return e.msg }
func (e *statusCodeError) StatusCode() int { return e.code }
