package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/retrykit/internal/core/domain"
	"github.com/vietddude/retrykit/internal/infra/storage"
)

var _ storage.JournalRepository = (*JournalRepo)(nil)

// JournalRepo stores journal entries as JSON in a capped Redis list.
type JournalRepo struct {
	client *Client
}

// NewJournalRepo creates a new Redis-backed journal repository.
func NewJournalRepo(client *Client) *JournalRepo {
	return &JournalRepo{client: client}
}

// Append pushes the entry and trims the list to the newest limit entries.
func (r *JournalRepo) Append(ctx context.Context, entry *domain.ErrorEntry, limit int) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	key := r.client.journalKey()
	pipe := r.client.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	if limit > 0 {
		pipe.LTrim(ctx, key, int64(-limit), -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// List returns all entries, oldest first. Undecodable items are skipped.
func (r *JournalRepo) List(ctx context.Context) ([]*domain.ErrorEntry, error) {
	items, err := r.client.rdb.LRange(ctx, r.client.journalKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange failed: %w", err)
	}

	entries := make([]*domain.ErrorEntry, 0, len(items))
	for _, item := range items {
		var e domain.ErrorEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

// Clear deletes the journal key.
func (r *JournalRepo) Clear(ctx context.Context) error {
	if err := r.client.rdb.Del(ctx, r.client.journalKey()).Err(); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}
	return nil
}

// DeleteOlderThan drops the leading entries created before cutoff. Entries are
// appended in time order, so the expired ones form a prefix of the list.
func (r *JournalRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	key := r.client.journalKey()
	removed := 0

	err := r.client.rdb.Watch(ctx, func(tx *redis.Tx) error {
		items, err := tx.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return fmt.Errorf("lrange failed: %w", err)
		}

		n := 0
		for _, item := range items {
			var e domain.ErrorEntry
			if err := json.Unmarshal([]byte(item), &e); err == nil && !e.CreatedAt.Before(cutoff) {
				break
			}
			n++
		}
		if n == 0 {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LTrim(ctx, key, int64(n), -1)
			return nil
		})
		if err != nil {
			return err
		}
		removed = n
		return nil
	}, key)
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}
	return removed, nil
}
