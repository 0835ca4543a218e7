package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "kernex-dashboard/pkg/errors"
)

// Liveness answers whether the control plane is believed reachable.
type Liveness interface {
	IsBackendHealthy(ctx context.Context) bool
}

var errBackendDown = errors.New("control plane failed its liveness check")

// Source describes how one data domain is fetched and what stands in for
// it when the fetch cannot be served.
type Source[T any] struct {
	Domain   string
	Fetch    func(ctx context.Context) (T, error)
	Fallback func() T
	// Latency is the simulated delay before a fallback answer.
	Latency time.Duration
}

type Orchestrator struct {
	liveness        Liveness
	fallbackEnabled bool
	latencyScale    float64
	tracker         *FetchTracker
	now             func() time.Time
	log             *zap.Logger
}

type OrchestratorOption func(*Orchestrator)

func WithLatencyScale(scale float64) OrchestratorOption {
	return func(o *Orchestrator) {
		if scale >= 0 {
			o.latencyScale = scale
		}
	}
}

func WithTracker(tracker *FetchTracker) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tracker = tracker
	}
}

func WithNow(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithOrchestratorLogger(log *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

func NewOrchestrator(liveness Liveness, fallbackEnabled bool, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		liveness:        liveness,
		fallbackEnabled: fallbackEnabled,
		latencyScale:    1,
		now:             time.Now,
		log:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) FallbackEnabled() bool {
	return o.fallbackEnabled
}

// Resolve serves src from the control plane when it is believed reachable
// and the fetch succeeds. Otherwise it returns the fallback dataset after
// the simulated latency, or ErrBackendUnavailable when fallback is off.
// Fetches are never retried.
func Resolve[T any](ctx context.Context, o *Orchestrator, src Source[T]) (T, error) {
	var zero T

	cause := errBackendDown
	if o.liveness.IsBackendHealthy(ctx) {
		start := o.now()
		v, err := src.Fetch(ctx)
		if err == nil {
			o.tracker.Record(src.Domain, SourceBackend, o.now().Sub(start), nil, o.now())
			return v, nil
		}
		cause = err
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if !o.fallbackEnabled {
		o.tracker.Record(src.Domain, SourceFailed, 0, cause, o.now())
		return zero, fmt.Errorf("fetch %s: %w: %w", src.Domain, appErrors.ErrBackendUnavailable, cause)
	}

	o.log.Warn("Control plane fetch failed, serving fallback data",
		zap.String("domain", src.Domain),
		zap.Error(cause),
	)

	if err := sleepContext(ctx, time.Duration(float64(src.Latency)*o.latencyScale)); err != nil {
		return zero, err
	}

	o.tracker.Record(src.Domain, SourceFallback, 0, cause, o.now())
	return src.Fallback(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
