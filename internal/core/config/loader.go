package config

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/retrykit/internal/core/retry"
	"github.com/vietddude/retrykit/internal/infra/httpretry"
)

// Default returns the configuration used when a key is absent.
func Default() AppConfig {
	return AppConfig{
		Server:  ServerConfig{Port: 8080},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Retry:   retry.DefaultConfig(),
		HTTP:    httpretry.DefaultConfig(),
		Journal: JournalConfig{Backend: BackendMemory, Limit: 100},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content on top of Default.
func Parse(data []byte) (*AppConfig, error) {
	cfg := Default()

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = BackendMemory
	}
	if cfg.Journal.Limit <= 0 {
		cfg.Journal.Limit = 100
	}

	for i := range cfg.Probes {
		p := &cfg.Probes[i]
		if p.Interval == 0 {
			p.Interval = 30 * time.Second
		}
		if p.Method == "" {
			p.Method = http.MethodGet
		}
		if p.Name == "" {
			p.Name = p.URL
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no sensible default.
func (c *AppConfig) Validate() error {
	switch c.Journal.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("journal backend %q requires redis.url", c.Journal.Backend)
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("journal backend %q requires database.url", c.Journal.Backend)
		}
	default:
		return fmt.Errorf("unknown journal backend %q", c.Journal.Backend)
	}
	if c.Journal.Retention < 0 {
		return fmt.Errorf("journal.retention must not be negative")
	}

	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		return fmt.Errorf("retry.jitter_factor must be within [0, 1], got %v", c.Retry.JitterFactor)
	}

	seen := make(map[string]bool, len(c.Probes))
	for _, p := range c.Probes {
		if p.URL == "" {
			return fmt.Errorf("probe %q has no url", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate probe name %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// RetryFor returns the effective retry settings for a probe.
func (c *AppConfig) RetryFor(p ProbeConfig) retry.Config {
	if p.Retry != nil {
		return *p.Retry
	}
	return c.Retry
}
