// Package httpretry sends HTTP requests through the retry engine.
package httpretry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vietddude/retrykit/internal/core/retry"
)

// Config holds transport settings.
type Config struct {
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"` // 0 disables the limiter
	Burst         int           `yaml:"burst"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	UserAgent     string        `yaml:"user_agent"`
}

// DefaultConfig returns the transport settings used by New for zero fields.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		Burst:        1,
		MaxBodyBytes: 1 << 20,
		UserAgent:    "retrykit/1.0",
	}
}

// FetchOptions describes a single logical request.
type FetchOptions struct {
	Method string
	Header http.Header
	// Body is resent on every attempt.
	Body []byte
	// Retry replaces the client's retry settings for this call.
	Retry *retry.Config
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Latency    time.Duration
}

// Client performs HTTP requests with classification, backoff and throttle tracking.
type Client struct {
	cfg        Config
	retry      retry.Config
	httpClient *http.Client
	limiter    *rate.Limiter

	mu       sync.Mutex
	monitors map[string]*Monitor
}

// New creates a client. retryCfg is the default for every Fetch.
func New(cfg Config, retryCfg retry.Config) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	c := &Client{
		cfg:   cfg,
		retry: retryCfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		monitors: make(map[string]*Monitor),
	}
	if cfg.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst)
	}
	return c
}

// Fetch sends the request, retrying transient failures.
// Statuses >= 400 come back as *StatusError wrapped in *retry.Error.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts FetchOptions) (*Response, error) {
	cfg := c.retry
	if opts.Retry != nil {
		cfg = *opts.Retry
		if cfg.Recorder == nil {
			cfg.Recorder = c.retry.Recorder
		}
	}
	cfg.OperationName = "Fetch " + rawURL

	return retry.Run(ctx, func(ctx context.Context) (*Response, error) {
		return c.do(ctx, rawURL, opts)
	}, cfg)
}

// Get is Fetch with default options.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Fetch(ctx, rawURL, FetchOptions{})
}

// Monitor returns the throttle monitor for host, creating it on first use.
func (c *Client) Monitor(host string) *Monitor {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.monitors[host]
	if !ok {
		m = NewMonitor()
		c.monitors[host] = m
	}
	return m
}

// Stats returns a snapshot of every host contacted so far.
func (c *Client) Stats() map[string]Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]Stats, len(c.monitors))
	for host, m := range c.monitors {
		out[host] = m.Stats()
	}
	return out
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, rawURL string, opts FetchOptions) (*Response, error) {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}

	monitor := c.Monitor(host)

	// Pre-call checks
	if status := monitor.Status(); status == StatusBlocked || status == StatusThrottled {
		return nil, &BlockedError{Host: host, State: status, RetryAfter: monitor.RetryAfter()}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		monitor.RecordFailure()
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	if err != nil {
		monitor.RecordFailure()
		return nil, &NetworkError{URL: rawURL, Err: fmt.Errorf("read response: %w", err)}
	}
	latency := time.Since(start)

	// Rate limit and IP block detection
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		wait := monitor.RecordThrottle(resp.StatusCode, resp.Header.Get("Retry-After"))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        rawURL,
			Body:       string(data),
			RetryAfter: wait,
			Throttled:  true,
		}
	case http.StatusForbidden:
		monitor.RecordThrottle(resp.StatusCode, "")
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: rawURL, Body: string(data)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		monitor.RecordFailure()
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        rawURL,
			Body:       string(data),
			Throttled:  monitor.DetectThrottlePattern(string(data)),
		}
	}

	monitor.RecordRequest(latency)
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Latency:    latency,
	}, nil
}
