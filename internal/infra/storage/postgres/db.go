package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Use pgx via database/sql
	"github.com/jmoiron/sqlx"

	"github.com/vietddude/retrykit/internal/infra/metrics"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	URL         string        `yaml:"url"`
	MaxConns    int           `yaml:"max_conns"`
	MinConns    int           `yaml:"min_conns"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`
	MaxIdleTime time.Duration `yaml:"max_idle_time"`
}

func (c Config) withDefaults() Config {
	if c.MaxConns <= 0 {
		c.MaxConns = 10
	}
	if c.MinConns <= 0 {
		c.MinConns = 2
	}
	if c.MinConns > c.MaxConns {
		c.MinConns = c.MaxConns
	}
	if c.MaxLifetime <= 0 {
		c.MaxLifetime = time.Hour
	}
	if c.MaxIdleTime <= 0 {
		c.MaxIdleTime = 30 * time.Minute
	}
	return c
}

// DB wraps the PostgreSQL connection.
type DB struct {
	*sqlx.DB
}

// NewDB creates a new database connection.
func NewDB(ctx context.Context, cfg Config) (*DB, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	configurePool(db.DB, cfg)

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// configurePool keeps MinConns idle connections out of at most MaxConns.
func configurePool(db *sql.DB, cfg Config) {
	cfg = cfg.withDefaults()
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)
}

// Wrap adopts an existing *sql.DB, such as a sqlmock connection.
func Wrap(db *sql.DB) *DB {
	return &DB{DB: sqlx.NewDb(db, "pgx")}
}

// StartMetricsCollector starts a background goroutine to collect DB metrics.
func (db *DB) StartMetricsCollector(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				db.collectMetrics()
			}
		}
	}()
}

func (db *DB) collectMetrics() {
	if usage, ok := poolUsage(db.Stats()); ok {
		metrics.DBConnectionPoolUsage.Set(usage)
	}
}

// poolUsage is the share of open connections in percent. It is undefined
// for an unlimited pool.
func poolUsage(stats sql.DBStats) (float64, bool) {
	if stats.MaxOpenConnections <= 0 {
		return 0, false
	}
	return float64(stats.OpenConnections) / float64(stats.MaxOpenConnections) * 100, true
}

// Health checks if the database is healthy.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
