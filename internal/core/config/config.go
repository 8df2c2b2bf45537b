package config

import (
	"time"

	"github.com/vietddude/retrykit/internal/core/retry"
	"github.com/vietddude/retrykit/internal/infra/httpretry"
	redisclient "github.com/vietddude/retrykit/internal/infra/redis"
	"github.com/vietddude/retrykit/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Retry    retry.Config       `yaml:"retry"`
	HTTP     httpretry.Config   `yaml:"http"`
	Journal  JournalConfig      `yaml:"journal"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Probes   []ProbeConfig      `yaml:"probes"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Journal backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// JournalConfig selects where failed operations are recorded.
type JournalConfig struct {
	Backend string `yaml:"backend"`
	Limit   int    `yaml:"limit"`
	// Retention prunes entries older than this. Zero keeps everything.
	Retention time.Duration `yaml:"retention"`
}

// ProbeConfig describes an endpoint checked periodically through the retry engine.
type ProbeConfig struct {
	Name     string        `yaml:"name"`
	URL      string        `yaml:"url"`
	Method   string        `yaml:"method"`
	Interval time.Duration `yaml:"interval"`
	// Retry overrides the global retry settings for this probe only.
	Retry *retry.Config `yaml:"retry"`
}
