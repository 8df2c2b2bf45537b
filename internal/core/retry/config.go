package retry

import (
	"time"
)

// Config defines retry behavior for a single Run call.
type Config struct {
	// MaxRetries is the total number of attempts, the first one included.
	MaxRetries        int           `yaml:"max_retries"`
	Timeout           time.Duration `yaml:"timeout"`
	InitialDelay      time.Duration `yaml:"initial_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	// JitterFactor is kept as given; zero disables jitter.
	JitterFactor  float64 `yaml:"jitter_factor"`
	OperationName string  `yaml:"operation_name"`

	OnRetry  OnRetryFunc    `yaml:"-"`
	Recorder Recorder       `yaml:"-"`
	Clock    Clock          `yaml:"-"`
	Rand     func() float64 `yaml:"-"`
}

// OnRetryFunc is called before each backoff sleep.
type OnRetryFunc func(attempt int, err error, delay time.Duration)

// Default values.
const (
	DefaultMaxRetries        = 3
	DefaultTimeout           = 5 * time.Second
	DefaultInitialDelay      = 1 * time.Second
	DefaultMaxDelay          = 10 * time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultJitterFactor      = 0.1
	DefaultOperationName     = "API Operation"

	// MinDelay is the floor applied to every computed backoff.
	MinDelay = 100 * time.Millisecond
)

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:        DefaultMaxRetries,
		Timeout:           DefaultTimeout,
		InitialDelay:      DefaultInitialDelay,
		MaxDelay:          DefaultMaxDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
		JitterFactor:      DefaultJitterFactor,
		OperationName:     DefaultOperationName,
	}
}

// normalized fills zero values with defaults. JitterFactor is only clamped.
func (c Config) normalized() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if c.JitterFactor < 0 {
		c.JitterFactor = 0
	}
	if c.JitterFactor > 1 {
		c.JitterFactor = 1
	}
	if c.OperationName == "" {
		c.OperationName = DefaultOperationName
	}
	if c.Recorder == nil {
		c.Recorder = defaultRecorder
	}
	if c.Clock == nil {
		c.Clock = defaultClock
	}
	return c
}

// Option adjusts a Config.
type Option func(*Config)

// WithMaxRetries sets the total number of attempts.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithInitialDelay sets the backoff base.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

// WithMaxDelay caps the backoff before jitter.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// WithBackoffMultiplier sets the exponential growth factor.
func WithBackoffMultiplier(m float64) Option {
	return func(c *Config) {
		c.BackoffMultiplier = m
	}
}

// WithJitter sets the jitter factor. 0.1 means ±10%.
func WithJitter(factor float64) Option {
	return func(c *Config) {
		c.JitterFactor = factor
	}
}

// WithOperationName labels diagnostics and exhaustion errors.
func WithOperationName(name string) Option {
	return func(c *Config) {
		c.OperationName = name
	}
}

// WithOnRetry sets the hook called before each backoff sleep.
func WithOnRetry(fn OnRetryFunc) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// WithRecorder sets the diagnostic sink.
func WithRecorder(r Recorder) Option {
	return func(c *Config) {
		c.Recorder = r
	}
}

// WithClock sets the clock used for backoff sleeps. Useful for testing.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithRand sets the jitter source. fn must return values in [0, 1).
func WithRand(fn func() float64) Option {
	return func(c *Config) {
		c.Rand = fn
	}
}
