package reaper

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct {
	calls atomic.Int32
	ttl   atomic.Int64
}

func (c *countingSweeper) Name() string { return "counting" }

func (c *countingSweeper) Sweep(_ time.Time, ttl time.Duration) int {
	c.calls.Add(1)
	c.ttl.Store(int64(ttl))
	return 1
}

func TestRun_SweepsUntilCanceled(t *testing.T) {
	t.Parallel()

	s := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Run(ctx, 5*time.Millisecond, time.Minute, s)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for s.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	if s.calls.Load() < 2 {
		t.Fatalf("sweeps=%d, want at least 2", s.calls.Load())
	}
	if time.Duration(s.ttl.Load()) != time.Minute {
		t.Fatalf("ttl=%v, want 1m", time.Duration(s.ttl.Load()))
	}
}
