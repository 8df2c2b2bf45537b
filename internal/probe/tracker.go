package probe

import (
	"sort"
	"sync"
	"time"

	"github.com/vietddude/retrykit/internal/core/domain"
)

// Status is the health of a probed target.
type Status string

const (
	StatusPending  Status = "pending"
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// criticalAfter is the number of consecutive failures that makes a target critical.
const criticalAfter = 3

// Result is the outcome of one probe.
type Result struct {
	Target      string          `json:"target"`
	OK          bool            `json:"ok"`
	StatusCode  int             `json:"status_code,omitempty"`
	Category    domain.Category `json:"category,omitempty"`
	Error       string          `json:"error,omitempty"`
	UserMessage string          `json:"user_message,omitempty"`
	EntryID     string          `json:"entry_id,omitempty"`
	Latency     time.Duration   `json:"latency"`
	CheckedAt   time.Time       `json:"checked_at"`
}

// TargetHealth is the tracked state of one target.
type TargetHealth struct {
	Name                string          `json:"name"`
	URL                 string          `json:"url"`
	Status              Status          `json:"status"`
	Checks              int             `json:"checks"`
	Failures            int             `json:"failures"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	LastStatusCode      int             `json:"last_status_code,omitempty"`
	LastCategory        domain.Category `json:"last_category,omitempty"`
	LastError           string          `json:"last_error,omitempty"`
	LastLatency         time.Duration   `json:"last_latency"`
	LastCheck           time.Time       `json:"last_check,omitempty"`
}

// Tracker keeps the latest probe results per target.
type Tracker struct {
	mu      sync.RWMutex
	targets map[string]*TargetHealth
}

func NewTracker() *Tracker {
	return &Tracker{targets: make(map[string]*TargetHealth)}
}

// Register adds a target in the pending state.
func (t *Tracker) Register(name, url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.targets[name]; !ok {
		t.targets[name] = &TargetHealth{Name: name, URL: url, Status: StatusPending}
	}
}

// Record applies a probe result.
func (t *Tracker) Record(r Result) TargetHealth {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.targets[r.Target]
	if !ok {
		h = &TargetHealth{Name: r.Target}
		t.targets[r.Target] = h
	}

	h.Checks++
	h.LastStatusCode = r.StatusCode
	h.LastLatency = r.Latency
	h.LastCheck = r.CheckedAt

	if r.OK {
		h.ConsecutiveFailures = 0
		h.LastCategory = ""
		h.LastError = ""
	} else {
		h.Failures++
		h.ConsecutiveFailures++
		h.LastCategory = r.Category
		h.LastError = r.Error
	}
	h.Status = statusFor(h.ConsecutiveFailures)

	return *h
}

func statusFor(consecutive int) Status {
	switch {
	case consecutive >= criticalAfter:
		return StatusCritical
	case consecutive > 0:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// Get returns the state of one target.
func (t *Tracker) Get(name string) (TargetHealth, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.targets[name]
	if !ok {
		return TargetHealth{}, false
	}
	return *h, true
}

// Snapshot returns every target sorted by name.
func (t *Tracker) Snapshot() []TargetHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]TargetHealth, 0, len(t.targets))
	for _, h := range t.targets {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Overall returns the worst status across targets. Pending targets count as healthy.
func (t *Tracker) Overall() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status := StatusHealthy
	for _, h := range t.targets {
		if h.Status == StatusCritical {
			return StatusCritical
		}
		if h.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}
