// Package service is the resilient data access layer between the dashboard
// views and the control plane.
package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"kernex-dashboard/internal/controlplane"
	"kernex-dashboard/internal/events"
	"kernex-dashboard/internal/fleet/aggregate"
	"kernex-dashboard/internal/fleet/model"
	"kernex-dashboard/internal/fleet/normalize"
	"kernex-dashboard/internal/fleet/ranking"
)

// Domain names used for logging and fetch statistics.
const (
	DomainDevices     = "devices"
	DomainBundles     = "bundles"
	DomainDeployments = "deployments"
	DomainMetrics     = "metrics"
	DomainChart       = "chart"
	DomainSuccessRate = "success_rate"
)

// Simulated fallback latencies per domain, before scaling.
var fallbackLatency = map[string]time.Duration{
	DomainDevices:     300 * time.Millisecond,
	DomainBundles:     250 * time.Millisecond,
	DomainDeployments: 280 * time.Millisecond,
	DomainMetrics:     200 * time.Millisecond,
	DomainChart:       220 * time.Millisecond,
	DomainSuccessRate: 200 * time.Millisecond,
}

// ControlPlane is the subset of the control-plane client the service uses.
type ControlPlane interface {
	ListDevices(ctx context.Context) ([]controlplane.RawDevice, error)
	GetDevice(ctx context.Context, deviceID string) (*controlplane.RawDevice, error)
	GetDeviceConfig(ctx context.Context, deviceID string) (*controlplane.RawDeviceConfig, error)
	UpdateDeviceConfig(ctx context.Context, deviceID string, req *model.UpdateDeviceConfigRequest) (*controlplane.RawDeviceConfig, error)
	BundleHistory(ctx context.Context, deviceID string, limit int) ([]controlplane.RawBundleHistory, error)
	ListBundles(ctx context.Context) ([]controlplane.RawBundle, error)
	UploadBundle(ctx context.Context, filename string, file io.Reader, manifest map[string]any) (*controlplane.RawBundleCreated, error)
	ListDeployments(ctx context.Context) ([]controlplane.RawDeployment, error)
	CreateDeployment(ctx context.Context, req *model.CreateDeploymentRequest) (*controlplane.RawDeploymentCreated, error)
	Rollback(ctx context.Context, req *model.RollbackRequest) (*controlplane.RawRollback, error)
	Logs(ctx context.Context, limit int) ([]controlplane.RawLog, error)
	Register(ctx context.Context, req *model.RegisterRequest) (*model.Account, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthToken, error)
	Logout()
	Health(ctx context.Context) error
	BaseURL() string
}

type Service struct {
	client       ControlPlane
	orchestrator *Orchestrator
	normalizer   *normalize.Normalizer
	dataset      *Dataset
	publisher    events.Publisher
	chartLoc     *time.Location
	now          func() time.Time
	log          *zap.Logger
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithChartLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.chartLoc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(client ControlPlane, orchestrator *Orchestrator, dataset *Dataset, opts ...Option) *Service {
	s := &Service{
		client:       client,
		orchestrator: orchestrator,
		dataset:      dataset,
		publisher:    events.NopPublisher{},
		chartLoc:     time.Local,
		now:          time.Now,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.normalizer = normalize.New(s.now)
	return s
}

func (s *Service) Devices(ctx context.Context) ([]model.Device, error) {
	return Resolve(ctx, s.orchestrator, Source[[]model.Device]{
		Domain:   DomainDevices,
		Fetch:    s.fetchDevices,
		Fallback: s.dataset.Devices,
		Latency:  fallbackLatency[DomainDevices],
	})
}

// RankedDevices is Devices filtered and ordered for the device list view.
func (s *Service) RankedDevices(ctx context.Context, query string, field ranking.SortField, ascending bool) ([]model.Device, error) {
	devices, err := s.Devices(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.Rank(devices, query, field, ascending), nil
}

func (s *Service) Bundles(ctx context.Context) ([]model.Bundle, error) {
	return Resolve(ctx, s.orchestrator, Source[[]model.Bundle]{
		Domain:   DomainBundles,
		Fetch:    s.fetchBundles,
		Fallback: s.dataset.Bundles,
		Latency:  fallbackLatency[DomainBundles],
	})
}

func (s *Service) Deployments(ctx context.Context) ([]model.Deployment, error) {
	return Resolve(ctx, s.orchestrator, Source[[]model.Deployment]{
		Domain:   DomainDeployments,
		Fetch:    s.fetchDeployments,
		Fallback: s.dataset.Deployments,
		Latency:  fallbackLatency[DomainDeployments],
	})
}

func (s *Service) Metrics(ctx context.Context) ([]model.Metric, error) {
	return Resolve(ctx, s.orchestrator, Source[[]model.Metric]{
		Domain:   DomainMetrics,
		Fetch:    s.fetchMetrics,
		Fallback: s.dataset.Metrics,
		Latency:  fallbackLatency[DomainMetrics],
	})
}

func (s *Service) Chart(ctx context.Context) ([]model.ChartDataPoint, error) {
	return Resolve(ctx, s.orchestrator, Source[[]model.ChartDataPoint]{
		Domain: DomainChart,
		Fetch: func(ctx context.Context) ([]model.ChartDataPoint, error) {
			deployments, err := s.fetchDeployments(ctx)
			if err != nil {
				return nil, err
			}
			return aggregate.Chart(deployments, s.chartLoc), nil
		},
		Fallback: s.dataset.Chart,
		Latency:  fallbackLatency[DomainChart],
	})
}

func (s *Service) SuccessRate(ctx context.Context) (model.SuccessRateSummary, error) {
	return Resolve(ctx, s.orchestrator, Source[model.SuccessRateSummary]{
		Domain: DomainSuccessRate,
		Fetch: func(ctx context.Context) (model.SuccessRateSummary, error) {
			deployments, err := s.fetchDeployments(ctx)
			if err != nil {
				return model.SuccessRateSummary{}, err
			}
			return aggregate.SuccessRate(deployments), nil
		},
		Fallback: s.dataset.SuccessRate,
		Latency:  fallbackLatency[DomainSuccessRate],
	})
}

// Overview fetches every dashboard panel concurrently. A failed panel is
// reported in Errors and does not fail the others.
func (s *Service) Overview(ctx context.Context, query string, field ranking.SortField, ascending bool) model.Overview {
	var (
		overview model.Overview
		mu       sync.Mutex
		wg       conc.WaitGroup
	)
	fail := func(panel string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if overview.Errors == nil {
			overview.Errors = make(map[string]string)
		}
		overview.Errors[panel] = err.Error()
	}

	wg.Go(func() {
		metrics, err := s.Metrics(ctx)
		if err != nil {
			fail(DomainMetrics, err)
			return
		}
		overview.Metrics = metrics
	})
	wg.Go(func() {
		chart, err := s.Chart(ctx)
		if err != nil {
			fail(DomainChart, err)
			return
		}
		overview.Chart = chart
	})
	wg.Go(func() {
		rate, err := s.SuccessRate(ctx)
		if err != nil {
			fail(DomainSuccessRate, err)
			return
		}
		overview.SuccessRate = rate
	})
	wg.Go(func() {
		devices, err := s.RankedDevices(ctx, query, field, ascending)
		if err != nil {
			fail(DomainDevices, err)
			return
		}
		overview.Devices = devices
	})
	wg.Wait()

	return overview
}

func (s *Service) fetchDevices(ctx context.Context) ([]model.Device, error) {
	raw, err := s.client.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Devices(raw)
}

func (s *Service) fetchBundles(ctx context.Context) ([]model.Bundle, error) {
	raw, err := s.client.ListBundles(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Bundles(raw)
}

func (s *Service) fetchDeployments(ctx context.Context) ([]model.Deployment, error) {
	raw, err := s.client.ListDeployments(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Deployments(raw)
}

// fetchMetrics loads the three collections in parallel; any failure fails
// the whole metrics fetch.
func (s *Service) fetchMetrics(ctx context.Context) ([]model.Metric, error) {
	var (
		devices     []model.Device
		bundles     []model.Bundle
		deployments []model.Deployment
	)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) (err error) {
		devices, err = s.fetchDevices(ctx)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		bundles, err = s.fetchBundles(ctx)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		deployments, err = s.fetchDeployments(ctx)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return aggregate.Metrics(devices, bundles, deployments, s.now()), nil
}

func (s *Service) FallbackEnabled() bool {
	return s.orchestrator.FallbackEnabled()
}
