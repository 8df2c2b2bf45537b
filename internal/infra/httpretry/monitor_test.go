package httpretry

import (
	"net/http"
	"testing"
	"time"
)

func newTestMonitor(now *time.Time) *Monitor {
	m := NewMonitor()
	m.now = func() time.Time { return *now }
	return m
}

func TestMonitor_DetectThrottlePattern(t *testing.T) {
	m := NewMonitor()

	tests := []struct {
		msg  string
		want bool
	}{
		{"Rate limit exceeded", true},
		{"error: Too Many Requests", true},
		{"daily request count exceeded, upgrade your plan", true},
		{"internal server error", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := m.DetectThrottlePattern(tt.msg); got != tt.want {
			t.Errorf("DetectThrottlePattern(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestMonitor_ThrottleWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestMonitor(&now)

	for i := 0; i < 6; i++ {
		m.RecordThrottle(http.StatusTooManyRequests, "30")
	}
	if got := m.Status(); got != StatusThrottled {
		t.Fatalf("expected throttled, got %s", got)
	}
	if got := m.RetryAfter(); got != 30*time.Second {
		t.Errorf("expected 30s retry after, got %v", got)
	}

	now = now.Add(31 * time.Second)
	if got := m.Status(); got != StatusHealthy {
		t.Errorf("expected healthy once the window passed, got %s", got)
	}
	if got := m.RetryAfter(); got != 0 {
		t.Errorf("expected no wait, got %v", got)
	}
}

func TestMonitor_SuccessResetsThrottle(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestMonitor(&now)

	for i := 0; i < 6; i++ {
		m.RecordThrottle(http.StatusTooManyRequests, "")
	}
	m.RecordRequest(10 * time.Millisecond)

	if got := m.Status(); got != StatusHealthy {
		t.Errorf("expected healthy, got %s", got)
	}
	if got := m.Stats().Throttled429; got != 6 {
		t.Errorf("expected total of 6 throttles kept, got %d", got)
	}
}

func TestMonitor_Blocked(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestMonitor(&now)

	m.RecordThrottle(http.StatusForbidden, "")
	if got := m.Status(); got != StatusBlocked {
		t.Fatalf("expected blocked, got %s", got)
	}

	now = now.Add(11 * time.Minute)
	if got := m.Status(); got != StatusHealthy {
		t.Errorf("expected block to expire, got %s", got)
	}
}

func TestMonitor_Degraded(t *testing.T) {
	m := NewMonitor()
	for i := 0; i < 11; i++ {
		m.RecordRequest(4 * time.Second)
	}

	stats := m.Stats()
	if stats.Status != StatusDegraded || stats.StatusName != "degraded" {
		t.Errorf("expected degraded, got %s", stats.StatusName)
	}
	if stats.AverageLatency != 4*time.Second {
		t.Errorf("expected 4s average, got %v", stats.AverageLatency)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", defaultRetryAfter},
		{"5", 5 * time.Second},
		{"garbage", defaultRetryAfter},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}

	for _, tt := range tests {
		if got := parseRetryAfter(tt.value, now); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
