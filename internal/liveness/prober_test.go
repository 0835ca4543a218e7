package liveness

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type funcChecker func(ctx context.Context) error

func (f funcChecker) Health(ctx context.Context) error { return f(ctx) }

func TestProberCachesWithinTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := NewMockHealthChecker(ctrl)
	clock := newFakeClock()

	checker.EXPECT().Health(gomock.Any()).Return(nil).Times(2)

	p := NewProber(checker, WithClock(clock), WithLogger(zap.NewNop()))
	ctx := context.Background()

	if !p.IsBackendHealthy(ctx) {
		t.Fatalf("expected healthy on first probe")
	}
	clock.Advance(29 * time.Second)
	if !p.IsBackendHealthy(ctx) {
		t.Fatalf("expected cached healthy result")
	}
	clock.Advance(time.Second)
	if !p.IsBackendHealthy(ctx) {
		t.Fatalf("expected healthy after re-probe")
	}
}

func TestProberFoldsFailuresIntoUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := NewMockHealthChecker(ctrl)
	clock := newFakeClock()

	gomock.InOrder(
		checker.EXPECT().Health(gomock.Any()).Return(errors.New("connection refused")),
		checker.EXPECT().Health(gomock.Any()).Return(nil),
	)

	p := NewProber(checker, WithClock(clock), WithLogger(zap.NewNop()))
	ctx := context.Background()

	if p.IsBackendHealthy(ctx) {
		t.Fatalf("expected unhealthy after failed probe")
	}
	if p.IsBackendHealthy(ctx) {
		t.Fatalf("failed result should stay cached within ttl")
	}
	state := p.Snapshot()
	if !state.Checked || state.Available {
		t.Fatalf("unexpected state %+v", state)
	}

	clock.Advance(DefaultTTL)
	if !p.IsBackendHealthy(ctx) {
		t.Fatalf("expected recovery after ttl")
	}
}

func TestProberSingleFlight(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	checker := funcChecker(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		<-release
		return nil
	})

	p := NewProber(checker, WithClock(newFakeClock()), WithLogger(zap.NewNop()))

	const callers = 20
	results := make(chan bool, callers)
	var started sync.WaitGroup
	started.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			started.Done()
			results <- p.IsBackendHealthy(context.Background())
		}()
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < callers; i++ {
		if !<-results {
			t.Fatalf("caller %d saw unhealthy", i)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly one probe, got %d", got)
	}
}

func TestProberCallerCancellationDoesNotAbortProbe(t *testing.T) {
	release := make(chan struct{})
	probed := make(chan struct{})
	checker := funcChecker(func(ctx context.Context) error {
		<-release
		close(probed)
		return ctx.Err()
	})

	p := NewProber(checker, WithClock(newFakeClock()), WithLogger(zap.NewNop()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool)
	go func() { done <- p.IsBackendHealthy(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	if <-done {
		t.Fatalf("abandoned caller should get false")
	}

	close(release)
	<-probed

	deadline := time.Now().Add(time.Second)
	for !p.Snapshot().Checked {
		if time.Now().After(deadline) {
			t.Fatalf("probe never completed")
		}
		time.Sleep(time.Millisecond)
	}
	if !p.Snapshot().Available {
		t.Fatalf("probe context should not inherit caller cancellation")
	}
}

func TestProberStampsCompletionTime(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	checker := funcChecker(func(ctx context.Context) error {
		clock.Advance(5 * time.Second)
		return nil
	})

	p := NewProber(checker, WithClock(clock), WithLogger(zap.NewNop()))
	p.IsBackendHealthy(context.Background())

	if got := p.Snapshot().LastCheckedAt; !got.Equal(start.Add(5 * time.Second)) {
		t.Fatalf("lastCheckedAt = %v, want probe completion %v", got, start.Add(5*time.Second))
	}
}

func TestProberInvalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := NewMockHealthChecker(ctrl)
	checker.EXPECT().Health(gomock.Any()).Return(nil).Times(2)

	p := NewProber(checker, WithClock(newFakeClock()), WithLogger(zap.NewNop()))
	p.IsBackendHealthy(context.Background())
	p.Invalidate()
	p.IsBackendHealthy(context.Background())
}
