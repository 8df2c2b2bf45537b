package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/retrykit/internal/core/config"
	"github.com/vietddude/retrykit/internal/core/retry"
	"github.com/vietddude/retrykit/internal/core/worker"
	"github.com/vietddude/retrykit/internal/health"
	"github.com/vietddude/retrykit/internal/infra/httpretry"
	"github.com/vietddude/retrykit/internal/infra/metrics"
	"github.com/vietddude/retrykit/internal/probe"
	"github.com/vietddude/retrykit/internal/recovery"
)

// App owns the journal, the HTTP client, the probers and the health server.
type App struct {
	cfg          config.AppConfig
	Journal      *recovery.Journal
	Client       *httpretry.Client
	Tracker      *probe.Tracker
	probers      []*probe.Prober
	pruner       *worker.Pruner
	healthServer *health.Server
	closeStore   func() error
	log          *slog.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
}

// RetryConfig returns cfg with the log and prometheus recorders attached.
func RetryConfig(cfg retry.Config, log *slog.Logger) retry.Config {
	cfg.Recorder = retry.MultiRecorder{retry.NewLogRecorder(log), metrics.NewRecorder()}
	return cfg
}

// New creates a new App with all dependencies initialized.
func New(ctx context.Context, cfg config.AppConfig) (*App, error) {
	log := slog.Default()
	retryCfg := RetryConfig(cfg.Retry, log)

	// 1. Initialize Storage
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	journal := recovery.New(store.Repo,
		recovery.WithLimit(cfg.Journal.Limit),
		recovery.WithRetry(retryCfg),
		recovery.WithLogger(log),
	)

	// 2. HTTP client and probers
	client := httpretry.New(cfg.HTTP, retryCfg)
	tracker := probe.NewTracker()

	probers := make([]*probe.Prober, 0, len(cfg.Probes))
	for _, pc := range cfg.Probes {
		target := probe.Target{
			Name:     pc.Name,
			URL:      pc.URL,
			Method:   pc.Method,
			Interval: pc.Interval,
		}
		if pc.Retry != nil {
			override := RetryConfig(cfg.RetryFor(pc), log)
			target.Retry = &override
		}
		probers = append(probers, probe.NewProber(target, client, journal, tracker))
		log.Info("Probe configured", "target", pc.Name, "url", pc.URL, "interval", pc.Interval)
	}

	// 3. Health server
	healthServer := health.NewServer(tracker, journal, client, cfg.Server.Port)
	if store.Ping != nil {
		healthServer.SetStoreCheck(cfg.Journal.Backend, store.Ping)
	}

	return &App{
		cfg:          cfg,
		Journal:      journal,
		Client:       client,
		Tracker:      tracker,
		probers:      probers,
		pruner:       worker.NewPruner(cfg.Journal.Retention, journal),
		healthServer: healthServer,
		closeStore:   store.Close,
		log:          log,
	}, nil
}

// Start launches the health server and the probers. It does not block.
func (a *App) Start(ctx context.Context) error {
	if a.group != nil {
		return errors.New("app already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	a.cancel = cancel
	a.group = g

	g.Go(func() error {
		if err := a.healthServer.Start(); err != nil {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	for _, p := range a.probers {
		g.Go(func() error {
			return p.Run(gctx)
		})
	}

	if a.cfg.Journal.Retention > 0 {
		g.Go(func() error {
			a.pruner.Start(gctx)
			return nil
		})
	}

	a.log.Info("App started", "port", a.cfg.Server.Port, "probes", len(a.probers), "journal", a.cfg.Journal.Backend)
	return nil
}

// Wait blocks until every component has returned.
func (a *App) Wait() error {
	if a.group == nil {
		return nil
	}
	return a.group.Wait()
}

// Stop stops the app.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping App...")

	if a.cancel != nil {
		a.cancel()
	}

	var errs []error
	if err := a.healthServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop health server: %w", err))
	}
	if err := a.Wait(); err != nil {
		errs = append(errs, err)
	}

	_ = a.Client.Close()
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			a.log.Warn("Failed to close journal store", "error", err)
		}
	}
	return errors.Join(errs...)
}
