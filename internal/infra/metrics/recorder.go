package metrics

import (
	"context"
	"strconv"

	"github.com/vietddude/retrykit/internal/core/domain"
	"github.com/vietddude/retrykit/internal/core/retry"
)

// Recorder feeds retry events into the prometheus vectors.
type Recorder struct{}

// NewRecorder returns a recorder backed by the package-level collectors.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record implements retry.Recorder.
func (Recorder) Record(_ context.Context, ev retry.Event) {
	switch ev.Kind {
	case retry.EventAttemptFailed:
		AttemptFailuresTotal.WithLabelValues(ev.Category.String()).Inc()
	case retry.EventBackoff:
		RetriesTotal.WithLabelValues(ev.Category.String()).Inc()
		BackoffDelay.Observe(ev.Delay.Seconds())
	case retry.EventSucceeded:
		outcome := OutcomeSucceeded
		if ev.Attempt > 1 {
			outcome = OutcomeRecovered
		}
		OutcomesTotal.WithLabelValues(outcome, "").Inc()
	case retry.EventGaveUp:
		OutcomesTotal.WithLabelValues(OutcomeGaveUp, ev.Category.String()).Inc()
	}
}

// ObserveJournalEntry counts a stored journal entry.
func ObserveJournalEntry(severity domain.Severity, recovered bool) {
	JournalEntriesTotal.WithLabelValues(string(severity), strconv.FormatBool(recovered)).Inc()
}
