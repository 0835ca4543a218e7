package liveness

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"kernex-dashboard/internal/logger"
)

// DefaultTTL is how long a probe result stays valid.
const DefaultTTL = 30 * time.Second

// HealthChecker performs one reachability probe against the backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// State is the cached belief about backend reachability.
type State struct {
	Available     bool          `json:"available"`
	LastCheckedAt time.Time     `json:"lastCheckedAt"`
	TTL           time.Duration `json:"ttl"`
	Checked       bool          `json:"checked"`
}

// Prober caches the outcome of health probes for a TTL window. Concurrent
// callers that find the cache stale share a single in-flight probe.
type Prober struct {
	checker      HealthChecker
	clock        Clock
	ttl          time.Duration
	probeTimeout time.Duration
	log          *zap.Logger

	group singleflight.Group

	mu    sync.RWMutex
	state State
}

type Option func(*Prober)

func WithClock(clock Clock) Option {
	return func(p *Prober) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(p *Prober) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithProbeTimeout bounds a single probe independently of callers' contexts.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		if timeout > 0 {
			p.probeTimeout = timeout
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(p *Prober) {
		if log != nil {
			p.log = log
		}
	}
}

func NewProber(checker HealthChecker, opts ...Option) *Prober {
	p := &Prober{
		checker:      checker,
		clock:        SystemClock,
		ttl:          DefaultTTL,
		probeTimeout: 15 * time.Second,
		log:          logger.Named("liveness"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.state.TTL = p.ttl
	return p
}

// IsBackendHealthy returns the cached availability while it is fresh and
// probes otherwise. Probe failures only ever produce false.
//
// A caller whose ctx ends stops waiting and gets false; the shared probe
// keeps running and still updates the cache for everyone else.
func (p *Prober) IsBackendHealthy(ctx context.Context) bool {
	if available, fresh := p.cached(); fresh {
		return available
	}

	ch := p.group.DoChan("health", func() (interface{}, error) {
		// Another caller may have refreshed the cache while this one was
		// queued behind the previous flight.
		if available, fresh := p.cached(); fresh {
			return available, nil
		}
		return p.probe(context.WithoutCancel(ctx)), nil
	})

	select {
	case res := <-ch:
		available, _ := res.Val.(bool)
		return available
	case <-ctx.Done():
		return false
	}
}

// Snapshot returns the current cached state without probing.
func (p *Prober) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Invalidate forces the next call to probe.
func (p *Prober) Invalidate() {
	p.mu.Lock()
	p.state.Checked = false
	p.mu.Unlock()
}

func (p *Prober) cached() (available bool, fresh bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.Checked {
		return false, false
	}
	if p.clock.Now().Sub(p.state.LastCheckedAt) < p.ttl {
		return p.state.Available, true
	}
	return p.state.Available, false
}

func (p *Prober) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	err := p.checker.Health(probeCtx)
	available := err == nil
	if err != nil {
		p.log.Debug("Backend health probe failed", zap.Error(err))
	} else {
		p.log.Debug("Backend health probe succeeded")
	}

	p.mu.Lock()
	previous := p.state
	p.state = State{
		Available:     available,
		LastCheckedAt: p.clock.Now(),
		TTL:           p.ttl,
		Checked:       true,
	}
	p.mu.Unlock()

	if previous.Checked && previous.Available != available {
		p.log.Info("Backend availability changed",
			zap.Bool("available", available),
		)
	}
	return available
}
