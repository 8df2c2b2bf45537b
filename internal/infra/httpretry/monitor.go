package httpretry

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Status represents the observed state of a remote host.
type Status int

const (
	StatusHealthy   Status = iota // Host is answering normally
	StatusDegraded                // Host is slow but working
	StatusThrottled               // Host is rate limiting
	StatusBlocked                 // Host has refused this client
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of a Monitor.
type Stats struct {
	Status           Status        `json:"-"`
	StatusName       string        `json:"status"`
	AverageLatency   time.Duration `json:"average_latency"`
	Requests         int           `json:"requests"`
	Throttled429     int           `json:"throttled_429"`
	Blocked403       int           `json:"blocked_403"`
	RetryAfter       time.Duration `json:"retry_after"`
	LastThrottleTime time.Time     `json:"last_throttle_time,omitempty"`
}

const (
	defaultRetryAfter = 60 * time.Second
	blockedRetryAfter = 10 * time.Minute
)

// Monitor tracks latency and rate limiting for one host.
type Monitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int
	requests         int

	status429Count     int
	consecutive429     int
	status403Count     int
	throttlePatterns   []string
	lastThrottleTime   time.Time
	lastThrottleStatus int
	retryAfterDuration time.Duration

	slowResponseThreshold time.Duration
	throttleThreshold     int

	now func() time.Time
}

// NewMonitor creates a monitor with default thresholds.
func NewMonitor() *Monitor {
	return &Monitor{
		recentLatencies:  make([]time.Duration, 0, 100),
		maxLatencyWindow: 100,
		throttlePatterns: []string{
			"rate limit exceeded",
			"too many requests",
			"daily request count exceeded",
			"project rate limit",
			"monthly quota exceeded",
		},
		slowResponseThreshold: 3 * time.Second,
		throttleThreshold:     5,
		now:                   time.Now,
	}
}

// RecordRequest records a successful request with its latency.
func (m *Monitor) RecordRequest(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	m.consecutive429 = 0

	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.maxLatencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}
}

// RecordThrottle records a 429 or 403 response and returns the wait it implies.
func (m *Monitor) RecordThrottle(statusCode int, retryAfter string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.requests++
	m.lastThrottleTime = now
	m.lastThrottleStatus = statusCode

	switch statusCode {
	case http.StatusTooManyRequests:
		m.status429Count++
		m.consecutive429++
		m.retryAfterDuration = parseRetryAfter(retryAfter, now)
	case http.StatusForbidden:
		m.status403Count++
		m.retryAfterDuration = blockedRetryAfter
	}
	return m.retryAfterDuration
}

// RecordFailure counts a request that failed for any other reason.
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
}

// DetectThrottlePattern checks if a message contains a known throttle phrase.
func (m *Monitor) DetectThrottlePattern(message string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lowerMsg := strings.ToLower(message)
	for _, pattern := range m.throttlePatterns {
		if strings.Contains(lowerMsg, pattern) {
			return true
		}
	}
	return false
}

// Status returns the current state of the host.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *Monitor) statusLocked() Status {
	inWindow := m.now().Sub(m.lastThrottleTime) < m.retryAfterDuration

	if m.lastThrottleStatus == http.StatusForbidden && inWindow {
		return StatusBlocked
	}
	if m.consecutive429 > m.throttleThreshold && inWindow {
		return StatusThrottled
	}

	if len(m.recentLatencies) > 10 {
		var total time.Duration
		for _, lat := range m.recentLatencies {
			total += lat
		}
		if total/time.Duration(len(m.recentLatencies)) > m.slowResponseThreshold {
			return StatusDegraded
		}
	}
	return StatusHealthy
}

// RetryAfter returns the remaining time before the host should be contacted again.
func (m *Monitor) RetryAfter() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.retryAfterLocked()
}

func (m *Monitor) retryAfterLocked() time.Duration {
	if m.retryAfterDuration <= 0 {
		return 0
	}
	if remaining := m.retryAfterDuration - m.now().Sub(m.lastThrottleTime); remaining > 0 {
		return remaining
	}
	return 0
}

// Stats returns a snapshot of the monitor.
func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var avg time.Duration
	if n := len(m.recentLatencies); n > 0 {
		var total time.Duration
		for _, lat := range m.recentLatencies {
			total += lat
		}
		avg = total / time.Duration(n)
	}

	status := m.statusLocked()
	return Stats{
		Status:           status,
		StatusName:       status.String(),
		AverageLatency:   avg,
		Requests:         m.requests,
		Throttled429:     m.status429Count,
		Blocked403:       m.status403Count,
		RetryAfter:       m.retryAfterLocked(),
		LastThrottleTime: m.lastThrottleTime,
	}
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return defaultRetryAfter
}
