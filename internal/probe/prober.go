// Package probe periodically checks HTTP endpoints through the retry engine
// and tracks their health.
package probe

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/retrykit/internal/core/retry"
	"github.com/vietddude/retrykit/internal/infra/httpretry"
	"github.com/vietddude/retrykit/internal/infra/metrics"
	"github.com/vietddude/retrykit/internal/recovery"
)

// Target describes an endpoint to check.
type Target struct {
	Name     string
	URL      string
	Method   string
	Interval time.Duration
	Retry    *retry.Config
}

// Prober checks one target on an interval.
type Prober struct {
	target  Target
	client  *httpretry.Client
	journal *recovery.Journal
	tracker *Tracker
	log     *slog.Logger
}

// NewProber creates a prober and registers its target with the tracker.
func NewProber(
	target Target,
	client *httpretry.Client,
	journal *recovery.Journal,
	tracker *Tracker,
) *Prober {
	if target.Method == "" {
		target.Method = http.MethodGet
	}
	if target.Interval <= 0 {
		target.Interval = 30 * time.Second
	}
	if target.Name == "" {
		target.Name = target.URL
	}
	tracker.Register(target.Name, target.URL)

	return &Prober{
		target:  target,
		client:  client,
		journal: journal,
		tracker: tracker,
		log:     slog.With("target", target.Name),
	}
}

// Target returns the probed target.
func (p *Prober) Target() Target {
	return p.target
}

// Check probes the target once. Failures are journaled.
func (p *Prober) Check(ctx context.Context) Result {
	start := time.Now()

	resp, err := recovery.Handle(ctx, p.journal, func(ctx context.Context) (*httpretry.Response, error) {
		return p.client.Fetch(ctx, p.target.URL, httpretry.FetchOptions{
			Method: p.target.Method,
			Retry:  p.target.Retry,
		})
	}, "verificar "+p.target.Name, recovery.HandleOptions{
		// Fetch already retries.
		NoRetry:  true,
		Metadata: map[string]any{"target": p.target.Name, "url": p.target.URL},
	})

	result := Result{
		Target:    p.target.Name,
		OK:        err == nil,
		Latency:   time.Since(start),
		CheckedAt: time.Now(),
	}
	if err != nil && ctx.Err() != nil {
		// shutting down; keep the last real outcome
		return result
	}
	if err == nil {
		result.StatusCode = resp.StatusCode
	} else {
		result.Category = retry.Classify(err)
		result.Error = err.Error()

		var rerr *recovery.Error
		if errors.As(err, &rerr) {
			result.UserMessage = rerr.UserMessage
			result.EntryID = rerr.EntryID
		}
		var statusErr *httpretry.StatusError
		if errors.As(err, &statusErr) {
			result.StatusCode = statusErr.StatusCode
		}
	}

	metrics.ProbeLatency.WithLabelValues(p.target.Name).Observe(result.Latency.Seconds())
	if result.OK {
		metrics.ProbeUp.WithLabelValues(p.target.Name).Set(1)
	} else {
		metrics.ProbeUp.WithLabelValues(p.target.Name).Set(0)
	}

	h := p.tracker.Record(result)
	if !result.OK {
		p.log.Warn("Probe failed",
			"category", result.Category,
			"status", h.Status,
			"consecutive_failures", h.ConsecutiveFailures,
			"error", result.Error,
		)
	}
	return result
}

// Run checks the target immediately and then on every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) error {
	p.log.Info("Starting prober", "url", p.target.URL, "interval", p.target.Interval)

	p.Check(ctx)

	ticker := time.NewTicker(p.target.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Prober stopped")
			return nil
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}
