package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type stubJournal struct {
	calls   atomic.Int32
	removed int
	err     error
	maxAge  time.Duration
}

func (s *stubJournal) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	s.calls.Add(1)
	s.maxAge = maxAge
	return s.removed, s.err
}

func TestPruner_Interval(t *testing.T) {
	tests := []struct {
		retention time.Duration
		want      time.Duration
	}{
		{time.Minute, time.Minute},
		{2 * time.Hour, 12 * time.Minute},
		{7 * 24 * time.Hour, time.Hour},
	}

	for _, tt := range tests {
		if got := NewPruner(tt.retention, &stubJournal{}).Interval(); got != tt.want {
			t.Errorf("Interval(%v) = %v, want %v", tt.retention, got, tt.want)
		}
	}
}

func TestPruner_Prune(t *testing.T) {
	j := &stubJournal{removed: 3}
	p := NewPruner(24*time.Hour, j)

	if got := p.Prune(context.Background()); got != 3 {
		t.Errorf("expected 3 removed, got %d", got)
	}
	if j.maxAge != 24*time.Hour {
		t.Errorf("expected retention passed through, got %v", j.maxAge)
	}

	j.err = errors.New("store down")
	if got := p.Prune(context.Background()); got != 0 {
		t.Errorf("expected 0 on error, got %d", got)
	}
}

func TestPruner_StartDisabledReturns(t *testing.T) {
	j := &stubJournal{}
	done := make(chan struct{})
	go func() {
		NewPruner(0, j).Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start should return immediately when retention is disabled")
	}
	if j.calls.Load() != 0 {
		t.Errorf("expected no prune calls, got %d", j.calls.Load())
	}
}

func TestPruner_StartPrunesImmediately(t *testing.T) {
	j := &stubJournal{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewPruner(time.Hour, j).Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for j.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if j.calls.Load() != 1 {
		t.Errorf("expected one initial prune, got %d", j.calls.Load())
	}
}
