package service

import (
	"sync"
	"time"
)

// FetchSource records where a domain's last answer came from.
type FetchSource string

const (
	SourceBackend  FetchSource = "backend"
	SourceFallback FetchSource = "fallback"
	SourceFailed   FetchSource = "failed"
)

// DomainStats tracks fetch outcomes for one data domain.
type DomainStats struct {
	BackendFetches     int64         `json:"backendFetches"`
	FallbackResponses  int64         `json:"fallbackResponses"`
	Failures           int64         `json:"failures"`
	LastSource         FetchSource   `json:"lastSource,omitempty"`
	LastFetchedAt      time.Time     `json:"lastFetchedAt"`
	LastError          string        `json:"lastError,omitempty"`
	AverageFetchTime   time.Duration `json:"averageFetchTimeNs"`
	averageSampleCount int64
}

// FetchStats is a point-in-time copy of every domain's counters.
type FetchStats map[string]DomainStats

// FetchTracker provides a goroutine-safe wrapper around per-domain stats.
type FetchTracker struct {
	mu        sync.RWMutex
	domains   map[string]*DomainStats
	listeners []func(domain string, stats DomainStats)
}

func NewFetchTracker() *FetchTracker {
	return &FetchTracker{domains: make(map[string]*DomainStats)}
}

// Record applies one fetch outcome. elapsed only feeds the average for
// backend fetches.
func (t *FetchTracker) Record(domain string, source FetchSource, elapsed time.Duration, err error, at time.Time) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.domains[domain]
	if !ok {
		s = &DomainStats{}
		t.domains[domain] = s
	}

	switch source {
	case SourceBackend:
		s.BackendFetches++
		s.averageSampleCount++
		s.AverageFetchTime += (elapsed - s.AverageFetchTime) / time.Duration(s.averageSampleCount)
	case SourceFallback:
		s.FallbackResponses++
	case SourceFailed:
		s.Failures++
	}
	s.LastSource = source
	s.LastFetchedAt = at
	s.LastError = ""
	if err != nil {
		s.LastError = err.Error()
	}

	snapshot := *s
	for _, listener := range t.listeners {
		listener(domain, snapshot)
	}
}

// Snapshot returns a copy of the current stats.
func (t *FetchTracker) Snapshot() FetchStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(FetchStats, len(t.domains))
	for domain, s := range t.domains {
		out[domain] = *s
	}
	return out
}

// Reset clears accumulated stats.
func (t *FetchTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.domains = make(map[string]*DomainStats)
}

// OnChange registers a callback invoked whenever a domain is updated.
func (t *FetchTracker) OnChange(listener func(domain string, stats DomainStats)) {
	if listener == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}
