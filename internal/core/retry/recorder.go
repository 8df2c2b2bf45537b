package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/retrykit/internal/core/domain"
)

// EventKind identifies an attempt boundary.
type EventKind string

const (
	EventAttemptFailed EventKind = "attempt_failed"
	EventBackoff       EventKind = "backoff"
	EventSucceeded     EventKind = "succeeded"
	EventGaveUp        EventKind = "gave_up"
)

// Event is a diagnostic record emitted by Run.
type Event struct {
	Kind        EventKind
	Operation   string
	Attempt     int
	MaxAttempts int
	Category    domain.Category
	Retryable   bool
	Err         error
	Status      int
	Code        string
	Delay       time.Duration
	Elapsed     time.Duration
	Time        time.Time
}

// Recorder receives diagnostic events. Implementations must not block.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, ev Event)

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// MultiRecorder fans events out to several recorders.
type MultiRecorder []Recorder

// Record implements Recorder.
func (m MultiRecorder) Record(ctx context.Context, ev Event) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, ev)
		}
	}
}

// NopRecorder discards everything.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Event) {}

var defaultRecorder Recorder = NewLogRecorder(nil)

// LogRecorder writes events to a slog.Logger.
type LogRecorder struct {
	log *slog.Logger
}

// NewLogRecorder creates a recorder. A nil logger means slog.Default at record time.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{log: logger}
}

func (r *LogRecorder) logger() *slog.Logger {
	if r.log != nil {
		return r.log
	}
	return slog.Default()
}

// Record implements Recorder.
func (r *LogRecorder) Record(ctx context.Context, ev Event) {
	log := r.logger().With(
		"operation", ev.Operation,
		"attempt", ev.Attempt,
		"max_attempts", ev.MaxAttempts,
	)

	switch ev.Kind {
	case EventAttemptFailed:
		log.ErrorContext(ctx, "Attempt failed",
			"category", ev.Category,
			"retryable", ev.Retryable,
			"error", ev.Err,
			"status", ev.Status,
			"code", ev.Code,
		)
	case EventBackoff:
		log.WarnContext(ctx, "Retrying after backoff", "delay", ev.Delay)
	case EventSucceeded:
		if ev.Attempt > 1 {
			log.InfoContext(ctx, "Operation recovered", "elapsed", ev.Elapsed)
		}
	case EventGaveUp:
		log.ErrorContext(ctx, "Giving up",
			"category", ev.Category,
			"retryable", ev.Retryable,
			"elapsed", ev.Elapsed,
			"error", ev.Err,
		)
	}
}

// LogDetailedError writes a single error record describing err with its
// classification and any caller metadata.
func LogDetailedError(
	ctx context.Context,
	logger *slog.Logger,
	action string,
	err error,
	metadata map[string]any,
) {
	if logger == nil {
		logger = slog.Default()
	}

	shape := Inspect(err)
	attrs := []any{
		"category", Classify(err),
		"message", shape.Message,
		"code", shape.Code,
		"status", shape.Status,
		"timestamp", time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range metadata {
		attrs = append(attrs, k, v)
	}

	logger.ErrorContext(ctx, "Error: "+action, attrs...)
}
