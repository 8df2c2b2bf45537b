// Package health serves probe health, the error journal and metrics over HTTP.
package health

import (
	"github.com/vietddude/retrykit/internal/infra/httpretry"
	"github.com/vietddude/retrykit/internal/probe"
)

// JournalSummary counts journal entries.
type JournalSummary struct {
	Entries  int `json:"entries"`
	Critical int `json:"critical"`
}

// StoreStatus reports whether the journal backend answers.
type StoreStatus struct {
	Backend string `json:"backend"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// Report contains the full health report.
type Report struct {
	Status  probe.Status               `json:"status"`
	Targets []probe.TargetHealth       `json:"targets"`
	Hosts   map[string]httpretry.Stats `json:"hosts,omitempty"`
	Journal *JournalSummary            `json:"journal,omitempty"`
	Store   *StoreStatus               `json:"store,omitempty"`
}
