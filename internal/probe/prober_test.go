package probe_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/retrykit/internal/core/domain"
	"github.com/vietddude/retrykit/internal/core/retry"
	"github.com/vietddude/retrykit/internal/infra/httpretry"
	"github.com/vietddude/retrykit/internal/probe"
	"github.com/vietddude/retrykit/internal/recovery"
)

type instantClock struct{}

func (instantClock) Now() time.Time                                   { return time.Now() }
func (instantClock) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func setup(t *testing.T, handler http.HandlerFunc) (*probe.Prober, *probe.Tracker, *recovery.Journal) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := retry.DefaultConfig()
	cfg.MaxRetries = 2
	cfg.Clock = instantClock{}
	cfg.Recorder = retry.NopRecorder{}

	client := httpretry.New(httpretry.Config{}, cfg)
	journal := recovery.New(nil, recovery.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	tracker := probe.NewTracker()

	p := probe.NewProber(probe.Target{Name: "api", URL: srv.URL + "/health"}, client, journal, tracker)
	return p, tracker, journal
}

func TestProber_CheckSuccess(t *testing.T) {
	p, tracker, journal := setup(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	res := p.Check(context.Background())
	if !res.OK || res.StatusCode != http.StatusOK {
		t.Fatalf("expected ok result, got %+v", res)
	}

	h, ok := tracker.Get("api")
	if !ok || h.Status != probe.StatusHealthy || h.Checks != 1 {
		t.Errorf("unexpected tracker state %+v", h)
	}
	entries, _ := journal.Entries(context.Background())
	if len(entries) != 0 {
		t.Errorf("expected no journal entries, got %d", len(entries))
	}
}

func TestProber_CheckFailureIsJournaled(t *testing.T) {
	var hits atomic.Int32
	p, tracker, journal := setup(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusGatewayTimeout)
	})

	res := p.Check(context.Background())
	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Category != domain.CategoryTimeout || res.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("unexpected result %+v", res)
	}
	if hits.Load() != 2 {
		t.Errorf("expected the client to retry once, got %d requests", hits.Load())
	}
	if res.UserMessage != "Erro ao verificar api: Operação demorou muito tempo. Por favor, tente novamente." {
		t.Errorf("unexpected user message %q", res.UserMessage)
	}

	entries, _ := journal.Entries(context.Background())
	if len(entries) != 1 || entries[0].ID != res.EntryID {
		t.Fatalf("expected the failure journaled as %s, got %+v", res.EntryID, entries)
	}
	if entries[0].Context.Metadata["target"] != "api" || entries[0].Context.Attempts != 2 {
		t.Errorf("unexpected entry context %+v", entries[0].Context)
	}

	p.Check(context.Background())
	p.Check(context.Background())
	h, _ := tracker.Get("api")
	if h.Status != probe.StatusCritical {
		t.Errorf("expected critical after 3 failed checks, got %s", h.Status)
	}
}

func TestProber_RunStopsOnCancel(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := httpretry.New(httpretry.Config{}, retry.DefaultConfig())
	journal := recovery.New(nil)
	tracker := probe.NewTracker()
	p := probe.NewProber(probe.Target{URL: srv.URL, Interval: 20 * time.Millisecond}, client, journal, tracker)

	if p.Target().Name != srv.URL {
		t.Errorf("expected name to default to the url, got %q", p.Target().Name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	if hits.Load() < 2 {
		t.Errorf("expected an immediate check plus ticks, got %d", hits.Load())
	}
}
