package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/retrykit/internal/core/domain"
	"github.com/vietddude/retrykit/internal/infra/storage"
)

var _ storage.JournalRepository = (*JournalRepo)(nil)

// JournalRepo keeps journal entries in process memory.
type JournalRepo struct {
	entries []*domain.ErrorEntry
	mu      sync.RWMutex
}

func NewJournalRepo() *JournalRepo {
	return &JournalRepo{}
}

func (r *JournalRepo) Append(ctx context.Context, entry *domain.ErrorEntry, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	if limit > 0 && len(r.entries) > limit {
		// copy so the dropped prefix can be collected
		kept := make([]*domain.ErrorEntry, limit)
		copy(kept, r.entries[len(r.entries)-limit:])
		r.entries = kept
	}
	return nil
}

func (r *JournalRepo) List(ctx context.Context) ([]*domain.ErrorEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ErrorEntry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

func (r *JournalRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	return nil
}

func (r *JournalRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0:0]
	for _, e := range r.entries {
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(r.entries) - len(kept)
	r.entries = kept
	return removed, nil
}
