package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/retrykit/internal/core/config"
	redisclient "github.com/vietddude/retrykit/internal/infra/redis"
	"github.com/vietddude/retrykit/internal/infra/storage"
	"github.com/vietddude/retrykit/internal/infra/storage/memory"
	"github.com/vietddude/retrykit/internal/infra/storage/postgres"
)

// Store is an opened journal backend.
type Store struct {
	Repo storage.JournalRepository
	// Ping is nil for the in-memory backend.
	Ping  func(ctx context.Context) error
	Close func() error
}

// OpenStore builds the journal repository selected by cfg.Journal.Backend.
func OpenStore(ctx context.Context, cfg config.AppConfig) (*Store, error) {
	switch cfg.Journal.Backend {
	case config.BackendRedis:
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		slog.Info("Using Redis journal")
		return &Store{Repo: redisclient.NewJournalRepo(client), Ping: client.Ping, Close: client.Close}, nil

	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		db.StartMetricsCollector(ctx)
		slog.Info("Using PostgreSQL journal")
		return &Store{Repo: postgres.NewJournalRepo(db), Ping: db.Health, Close: db.Close}, nil

	default:
		slog.Info("Using Memory journal")
		return &Store{Repo: memory.NewJournalRepo(), Close: func() error { return nil }}, nil
	}
}
