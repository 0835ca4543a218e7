package service

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/goccy/go-yaml"

	"kernex-dashboard/internal/fleet/model"
)

//go:embed fallback.yaml
var embeddedFallback []byte

type fallbackFile struct {
	Devices     []fallbackDevice         `yaml:"devices"`
	Bundles     []fallbackBundle         `yaml:"bundles"`
	Deployments []fallbackDeployment     `yaml:"deployments"`
	Metrics     []model.Metric           `yaml:"metrics"`
	Chart       []model.ChartDataPoint   `yaml:"chart"`
	SuccessRate model.SuccessRateSummary `yaml:"successRate"`
}

type fallbackDevice struct {
	ID                 string             `yaml:"id"`
	Name               string             `yaml:"name"`
	Type               string             `yaml:"type"`
	Status             model.DeviceStatus `yaml:"status"`
	BundleVersion      string             `yaml:"bundleVersion"`
	LastSeenAgoSeconds int                `yaml:"lastSeenAgoSeconds"`
	CPUUsage           float64            `yaml:"cpuUsage"`
	MemoryUsage        float64            `yaml:"memoryUsage"`
	Location           string             `yaml:"location"`
	IPAddress          string             `yaml:"ipAddress"`
}

type fallbackBundle struct {
	ID                 string             `yaml:"id"`
	Version            string             `yaml:"version"`
	Name               string             `yaml:"name"`
	Size               string             `yaml:"size"`
	UploadedAgoSeconds int                `yaml:"uploadedAgoSeconds"`
	DeployedCount      int                `yaml:"deployedCount"`
	Status             model.BundleStatus `yaml:"status"`
}

type fallbackDeployment struct {
	ID                  string                 `yaml:"id"`
	BundleVersion       string                 `yaml:"bundleVersion"`
	TargetDevices       int                    `yaml:"targetDevices"`
	SuccessCount        int                    `yaml:"successCount"`
	FailedCount         int                    `yaml:"failedCount"`
	Status              model.DeploymentStatus `yaml:"status"`
	StartedAgoSeconds   int                    `yaml:"startedAgoSeconds"`
	CompletedAgoSeconds *int                   `yaml:"completedAgoSeconds"`
}

// Dataset is the static substitute data served while the control plane is
// unreachable. Accessors return copies.
type Dataset struct {
	devices     []model.Device
	bundles     []model.Bundle
	deployments []model.Deployment
	metrics     []model.Metric
	chart       []model.ChartDataPoint
	successRate model.SuccessRateSummary
}

// LoadDataset reads the fallback dataset from path, or the embedded copy
// when path is empty. Relative ages are anchored at loadedAt.
func LoadDataset(path string, loadedAt time.Time) (*Dataset, error) {
	data := embeddedFallback
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fallback dataset: %w", err)
		}
		data = raw
	}

	var f fallbackFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fallback dataset: %w", err)
	}

	return f.materialize(loadedAt), nil
}

// MustLoadEmbeddedDataset is LoadDataset("", now) for callers that cannot
// fail, such as tests and defaults.
func MustLoadEmbeddedDataset(now time.Time) *Dataset {
	ds, err := LoadDataset("", now)
	if err != nil {
		panic(err)
	}
	return ds
}

func (f *fallbackFile) materialize(at time.Time) *Dataset {
	ago := func(seconds int) time.Time {
		return at.Add(-time.Duration(seconds) * time.Second)
	}

	ds := &Dataset{
		devices:     make([]model.Device, 0, len(f.Devices)),
		bundles:     make([]model.Bundle, 0, len(f.Bundles)),
		deployments: make([]model.Deployment, 0, len(f.Deployments)),
		metrics:     f.Metrics,
		chart:       f.Chart,
		successRate: f.SuccessRate,
	}

	for _, d := range f.Devices {
		ds.devices = append(ds.devices, model.Device{
			ID:            d.ID,
			Name:          d.Name,
			Type:          d.Type,
			Status:        d.Status,
			BundleVersion: d.BundleVersion,
			LastSeen:      ago(d.LastSeenAgoSeconds),
			CPUUsage:      d.CPUUsage,
			MemoryUsage:   d.MemoryUsage,
			Location:      d.Location,
			IPAddress:     d.IPAddress,
		})
	}
	for _, b := range f.Bundles {
		ds.bundles = append(ds.bundles, model.Bundle{
			ID:            b.ID,
			Version:       b.Version,
			Name:          b.Name,
			Size:          b.Size,
			UploadedAt:    ago(b.UploadedAgoSeconds),
			DeployedCount: b.DeployedCount,
			Status:        b.Status,
		})
	}
	for _, d := range f.Deployments {
		dep := model.Deployment{
			ID:            d.ID,
			BundleVersion: d.BundleVersion,
			TargetDevices: d.TargetDevices,
			SuccessCount:  d.SuccessCount,
			FailedCount:   d.FailedCount,
			Status:        d.Status,
			StartedAt:     ago(d.StartedAgoSeconds),
		}
		if d.CompletedAgoSeconds != nil {
			completed := ago(*d.CompletedAgoSeconds)
			dep.CompletedAt = &completed
		}
		ds.deployments = append(ds.deployments, dep)
	}

	return ds
}

func (d *Dataset) Devices() []model.Device {
	return slices.Clone(d.devices)
}

func (d *Dataset) Bundles() []model.Bundle {
	return slices.Clone(d.bundles)
}

func (d *Dataset) Deployments() []model.Deployment {
	out := slices.Clone(d.deployments)
	for i := range out {
		if out[i].CompletedAt != nil {
			completed := *out[i].CompletedAt
			out[i].CompletedAt = &completed
		}
	}
	return out
}

func (d *Dataset) Metrics() []model.Metric {
	return slices.Clone(d.metrics)
}

func (d *Dataset) Chart() []model.ChartDataPoint {
	return slices.Clone(d.chart)
}

func (d *Dataset) SuccessRate() model.SuccessRateSummary {
	return d.successRate
}
