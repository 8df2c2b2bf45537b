package httpretry

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// NetworkError is returned when the request never produced a response.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is returned for responses with status >= 400.
// The URL is kept out of the message so it cannot influence classification.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
	RetryAfter time.Duration
	Throttled  bool
}

func (e *StatusError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Throttled || e.StatusCode == http.StatusTooManyRequests {
		b.WriteString(": rate limit exceeded")
		if e.RetryAfter > 0 {
			fmt.Fprintf(&b, ", retry after %s", e.RetryAfter)
		}
	}
	return b.String()
}

// Status exposes the HTTP status to retry.Inspect.
func (e *StatusError) Status() int {
	return e.StatusCode
}

// BlockedError is returned without sending a request while the monitor
// considers the host blocked or throttled.
type BlockedError struct {
	Host       string
	State      Status
	RetryAfter time.Duration
}

func (e *BlockedError) Error() string {
	if e.State == StatusBlocked {
		return fmt.Sprintf("%s: forbidden, client blocked, retry after %s", e.Host, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limit, client throttled, retry after %s", e.Host, e.RetryAfter)
}

// Status maps the monitor state onto the HTTP status that caused it.
func (e *BlockedError) Status() int {
	if e.State == StatusBlocked {
		return http.StatusForbidden
	}
	return http.StatusTooManyRequests
}
