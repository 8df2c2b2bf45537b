package worker

import (
	"context"
	"log/slog"
	"time"
)

// JournalPruner is the part of the error journal the pruner needs.
type JournalPruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
}

// Pruner deletes old journal entries based on retention policy.
type Pruner struct {
	retention time.Duration
	journal   JournalPruner
}

// NewPruner creates a new Pruner worker.
func NewPruner(retention time.Duration, journal JournalPruner) *Pruner {
	return &Pruner{
		retention: retention,
		journal:   journal,
	}
}

// Interval returns how often the pruner runs: 10% of the retention period,
// clamped to [1m, 1h].
func (p *Pruner) Interval() time.Duration {
	interval := min(p.retention/10, 1*time.Hour)
	return max(interval, 1*time.Minute)
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	// Initial prune
	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune runs one pass and returns the number of removed entries.
func (p *Pruner) Prune(ctx context.Context) int {
	removed, err := p.journal.Prune(ctx, p.retention)
	if err != nil {
		slog.Error("Failed to prune error journal", "retention", p.retention, "error", err)
		return 0
	}
	if removed > 0 {
		slog.Info("Pruned error journal", "removed", removed, "retention", p.retention)
	}
	return removed
}
