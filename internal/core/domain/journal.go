package domain

import "time"

// Severity ranks journal entries.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RedactedSnapshot replaces state snapshots in exported entries.
const RedactedSnapshot = "[REDACTED]"

// ErrorContext captures who was doing what when an operation failed.
type ErrorContext struct {
	UserID        string         `json:"user_id,omitempty"`
	Action        string         `json:"action"`
	Timestamp     time.Time      `json:"timestamp"`
	Category      Category       `json:"category"`
	Error         string         `json:"error"`
	Attempts      int            `json:"attempts,omitempty"`
	StateSnapshot map[string]any `json:"state_snapshot,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ErrorEntry is a single record in the error journal.
type ErrorEntry struct {
	ID        string       `json:"id"`
	Context   ErrorContext `json:"context"`
	Message   string       `json:"message"`
	Severity  Severity     `json:"severity"`
	Recovered bool         `json:"recovered"`
	CreatedAt time.Time    `json:"created_at"`
}

// IsCritical reports whether the entry should page someone.
func (e *ErrorEntry) IsCritical() bool {
	return e.Severity == SeverityHigh || e.Severity == SeverityCritical
}
