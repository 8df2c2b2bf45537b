// Package recovery records failed operations in an error journal, rolls back
// state and turns failures into user-facing messages.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/retrykit/internal/core/domain"
	"github.com/vietddude/retrykit/internal/core/retry"
	"github.com/vietddude/retrykit/internal/infra/metrics"
	"github.com/vietddude/retrykit/internal/infra/storage"
	"github.com/vietddude/retrykit/internal/infra/storage/memory"
)

// DefaultLimit is the number of entries kept when no limit is configured.
const DefaultLimit = 100

// Journal captures failures and keeps the newest entries in a store.
type Journal struct {
	store storage.JournalRepository
	limit int
	retry retry.Config
	log   *slog.Logger
	now   func() time.Time
}

// Option configures a Journal.
type Option func(*Journal)

// WithLimit caps the number of stored entries.
func WithLimit(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.limit = n
		}
	}
}

// WithRetry sets the retry settings used by Handle.
func WithRetry(cfg retry.Config) Option {
	return func(j *Journal) {
		j.retry = cfg
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(j *Journal) {
		j.log = l
	}
}

// WithNow overrides the time source for timestamps.
func WithNow(now func() time.Time) Option {
	return func(j *Journal) {
		j.now = now
	}
}

// New creates a journal. A nil store keeps entries in memory.
func New(store storage.JournalRepository, opts ...Option) *Journal {
	if store == nil {
		store = memory.NewJournalRepo()
	}
	j := &Journal{
		store: store,
		limit: DefaultLimit,
		retry: retry.DefaultConfig(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Journal) logger() *slog.Logger {
	if j.log != nil {
		return j.log
	}
	return slog.Default()
}

// CaptureOptions adds caller details to a captured failure.
type CaptureOptions struct {
	UserID        string
	StateSnapshot map[string]any
	Metadata      map[string]any
}

// Capture builds the error context for err and logs it.
func (j *Journal) Capture(ctx context.Context, err error, action string, opts CaptureOptions) domain.ErrorContext {
	ec := domain.ErrorContext{
		UserID:        opts.UserID,
		Action:        action,
		Timestamp:     j.now(),
		Category:      retry.Classify(err),
		Error:         errorText(err),
		StateSnapshot: opts.StateSnapshot,
		Metadata:      opts.Metadata,
	}
	if terminal, ok := retry.AsError(err); ok {
		ec.Attempts = terminal.Attempts
	}

	j.logger().ErrorContext(ctx, "Operation failed",
		"action", action,
		"category", ec.Category,
		"error", ec.Error,
		"user_id", opts.UserID,
		"attempts", ec.Attempts,
	)
	return ec
}

// Log stores an entry. The entry is returned even when the store fails.
func (j *Journal) Log(
	ctx context.Context,
	ec domain.ErrorContext,
	message string,
	severity domain.Severity,
	recovered bool,
) (*domain.ErrorEntry, error) {
	if severity == "" {
		severity = domain.SeverityMedium
	}
	entry := &domain.ErrorEntry{
		ID:        "error_" + uuid.NewString(),
		Context:   ec,
		Message:   message,
		Severity:  severity,
		Recovered: recovered,
		CreatedAt: j.now(),
	}

	metrics.ObserveJournalEntry(severity, recovered)

	if entry.IsCritical() {
		j.logger().ErrorContext(ctx, fmt.Sprintf("[%s] %s", strings.ToUpper(string(severity)), message),
			"error_id", entry.ID,
			"action", ec.Action,
			"category", ec.Category,
			"recovered", recovered,
		)
	}

	if err := j.store.Append(ctx, entry, j.limit); err != nil {
		return entry, fmt.Errorf("store journal entry: %w", err)
	}
	return entry, nil
}

// UserMessage converts err into a user-facing message, prefixed with the
// action when one is given.
func (j *Journal) UserMessage(err error, action string) string {
	return UserMessage(err, action)
}

// UserMessage is the journal-independent form of Journal.UserMessage.
func UserMessage(err error, action string) string {
	cause := err
	if terminal, ok := retry.AsError(err); ok {
		cause = terminal.Err
	}
	msg := retry.MessageFor(retry.Classify(err), cause)
	if action != "" {
		msg = fmt.Sprintf("Erro ao %s: %s", action, msg)
	}
	return msg
}

// Rollback runs the rollback hook. A nil hook is a no-op.
func (j *Journal) Rollback(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	if err := fn(ctx); err != nil {
		j.logger().ErrorContext(ctx, "Failed to restore state", "error", err)
		return fmt.Errorf("state rollback failed: %w", err)
	}
	j.logger().InfoContext(ctx, "State restored")
	return nil
}

// HandleOptions tunes Handle.
type HandleOptions struct {
	UserID        string
	StateSnapshot map[string]any
	Metadata      map[string]any

	// NoRetry runs the operation once, without a timeout race.
	NoRetry bool
	// Retry replaces the journal's retry settings.
	Retry   *retry.Config
	OnRetry retry.OnRetryFunc

	// Rollback restores the previous state after a failure.
	Rollback func(ctx context.Context) error
}

// Handle runs op with retries. On failure the error is captured, the state is
// rolled back when a hook is given, and an entry is written to the journal.
// The returned error is a *Error.
func Handle[T any](
	ctx context.Context,
	j *Journal,
	op retry.Operation[T],
	action string,
	opts HandleOptions,
) (T, error) {
	var zero T

	var (
		value T
		err   error
	)
	if opts.NoRetry {
		value, err = op(ctx)
	} else {
		cfg := j.retry
		if opts.Retry != nil {
			cfg = *opts.Retry
		}
		if action != "" {
			cfg.OperationName = action
		}
		if opts.OnRetry != nil {
			cfg.OnRetry = opts.OnRetry
		}
		value, err = retry.Run(ctx, op, cfg)
	}
	if err == nil {
		return value, nil
	}

	ec := j.Capture(ctx, err, action, CaptureOptions{
		UserID:        opts.UserID,
		StateSnapshot: opts.StateSnapshot,
		Metadata:      opts.Metadata,
	})
	if ec.Attempts == 0 {
		ec.Attempts = 1
	}

	severity := severityFor(ec.Category)
	recovered := false
	if opts.Rollback != nil {
		if rbErr := j.Rollback(ctx, opts.Rollback); rbErr != nil {
			severity = domain.SeverityCritical
		} else {
			recovered = true
		}
	}

	message := UserMessage(err, action)
	entry, storeErr := j.Log(ctx, ec, message, severity, recovered)
	if storeErr != nil {
		j.logger().WarnContext(ctx, "Failed to persist journal entry", "error", storeErr)
	}

	return zero, &Error{
		UserMessage: message,
		EntryID:     entry.ID,
		Context:     ec,
		Severity:    severity,
		Transient:   ec.Category.Retryable(),
		Recovered:   recovered,
		Err:         err,
	}
}

func severityFor(category domain.Category) domain.Severity {
	switch category {
	case domain.CategoryUnauthorized:
		return domain.SeverityHigh
	case domain.CategoryValidation:
		return domain.SeverityLow
	default:
		return domain.SeverityMedium
	}
}

// SafeOptions tunes SafeExecute.
type SafeOptions struct {
	UserID string
	// Action enables capture and logging of the failure.
	Action  string
	OnError func(error)
}

// SafeExecute runs fn once and returns fallback if it fails.
func SafeExecute[T any](
	ctx context.Context,
	j *Journal,
	fn func(context.Context) (T, error),
	fallback T,
	opts SafeOptions,
) T {
	value, err := fn(ctx)
	if err == nil {
		return value
	}

	if opts.Action != "" {
		j.Capture(ctx, err, opts.Action, CaptureOptions{UserID: opts.UserID})
	}
	if opts.OnError != nil {
		opts.OnError(err)
	}
	return fallback
}

// Entries returns every stored entry, oldest first.
func (j *Journal) Entries(ctx context.Context) ([]*domain.ErrorEntry, error) {
	return j.store.List(ctx)
}

// ForUser returns the entries recorded for userID.
func (j *Journal) ForUser(ctx context.Context, userID string) ([]*domain.ErrorEntry, error) {
	return j.filter(ctx, func(e *domain.ErrorEntry) bool {
		return e.Context.UserID == userID
	})
}

// Critical returns high and critical entries.
func (j *Journal) Critical(ctx context.Context) ([]*domain.ErrorEntry, error) {
	return j.filter(ctx, (*domain.ErrorEntry).IsCritical)
}

func (j *Journal) filter(ctx context.Context, keep func(*domain.ErrorEntry) bool) ([]*domain.ErrorEntry, error) {
	entries, err := j.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ErrorEntry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Clear removes every entry.
func (j *Journal) Clear(ctx context.Context) error {
	return j.store.Clear(ctx)
}

// Prune removes entries older than maxAge.
func (j *Journal) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	return j.store.DeleteOlderThan(ctx, j.now().Add(-maxAge))
}

// ExportedContext is an ErrorContext with the state snapshot redacted.
type ExportedContext struct {
	domain.ErrorContext
	StateSnapshot string `json:"state_snapshot,omitempty"`
}

// ExportedEntry is the shape written by Export.
type ExportedEntry struct {
	domain.ErrorEntry
	Context ExportedContext `json:"context"`
}

// Export returns all entries with state snapshots replaced by a marker.
func (j *Journal) Export(ctx context.Context) ([]ExportedEntry, error) {
	entries, err := j.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ExportedEntry, 0, len(entries))
	for _, e := range entries {
		ec := e.Context
		snapshot := ""
		if ec.StateSnapshot != nil {
			snapshot = domain.RedactedSnapshot
		}
		ec.StateSnapshot = nil

		entry := *e
		entry.Context = domain.ErrorContext{}
		out = append(out, ExportedEntry{
			ErrorEntry: entry,
			Context:    ExportedContext{ErrorContext: ec, StateSnapshot: snapshot},
		})
	}
	return out, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
