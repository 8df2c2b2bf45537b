package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vietddude/retrykit/internal/core/domain"
	"github.com/vietddude/retrykit/internal/infra/storage"
)

var _ storage.JournalRepository = (*JournalRepo)(nil)

// JournalRepo implements storage.JournalRepository using PostgreSQL.
type JournalRepo struct {
	db *DB
}

// NewJournalRepo creates a new PostgreSQL journal repository.
func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

type journalRow struct {
	ID        string    `db:"id"`
	Context   []byte    `db:"context"`
	Message   string    `db:"message"`
	Severity  string    `db:"severity"`
	Recovered bool      `db:"recovered"`
	CreatedAt time.Time `db:"created_at"`
}

// Append inserts the entry and trims the table in one transaction.
func (r *JournalRepo) Append(ctx context.Context, entry *domain.ErrorEntry, limit int) error {
	ctxJSON, err := json.Marshal(entry.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal error context: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `
		INSERT INTO error_journal (id, user_id, action, category, severity, message, recovered, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.Context.UserID,
		entry.Context.Action,
		string(entry.Context.Category),
		string(entry.Severity),
		entry.Message,
		entry.Recovered,
		ctxJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}

	if limit > 0 {
		trim := `
			DELETE FROM error_journal
			WHERE seq NOT IN (SELECT seq FROM error_journal ORDER BY seq DESC LIMIT $1)
		`
		if _, err := tx.ExecContext(ctx, trim, limit); err != nil {
			return fmt.Errorf("failed to trim journal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit journal entry: %w", err)
	}
	return nil
}

// List returns all entries ordered by insertion.
func (r *JournalRepo) List(ctx context.Context) ([]*domain.ErrorEntry, error) {
	query := `
		SELECT id, context, message, severity, recovered, created_at
		FROM error_journal
		ORDER BY seq ASC
	`

	var rows []journalRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}

	entries := make([]*domain.ErrorEntry, 0, len(rows))
	for _, row := range rows {
		var ec domain.ErrorContext
		if err := json.Unmarshal(row.Context, &ec); err != nil {
			return nil, fmt.Errorf("failed to decode context of %s: %w", row.ID, err)
		}
		entries = append(entries, &domain.ErrorEntry{
			ID:        row.ID,
			Context:   ec,
			Message:   row.Message,
			Severity:  domain.Severity(row.Severity),
			Recovered: row.Recovered,
			CreatedAt: row.CreatedAt,
		})
	}
	return entries, nil
}

// Clear deletes every entry.
func (r *JournalRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM error_journal`); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}
	return nil
}

// DeleteOlderThan removes entries created before cutoff.
func (r *JournalRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM error_journal WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}
