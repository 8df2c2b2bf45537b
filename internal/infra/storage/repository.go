package storage

import (
	"context"
	"time"

	"github.com/vietddude/retrykit/internal/core/domain"
)

// JournalRepository persists error journal entries.
type JournalRepository interface {
	// Append stores an entry and drops the oldest ones beyond limit.
	// A limit <= 0 keeps everything.
	Append(ctx context.Context, entry *domain.ErrorEntry, limit int) error

	// List returns entries oldest first.
	List(ctx context.Context) ([]*domain.ErrorEntry, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// DeleteOlderThan removes entries created before the cutoff and returns
	// how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
