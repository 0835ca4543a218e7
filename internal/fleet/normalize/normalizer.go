package normalize

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"kernex-dashboard/internal/controlplane"
	"kernex-dashboard/internal/fleet/model"
	appErrors "kernex-dashboard/pkg/errors"
)

// Normalizer turns raw control-plane payloads into view-models. Missing
// timestamps resolve to the normalizer's clock.
type Normalizer struct {
	now func() time.Time
}

func New(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

func (n *Normalizer) Device(index int, raw controlplane.RawDevice) (model.Device, error) {
	id := strings.TrimSpace(raw.DeviceID)
	if id == "" {
		return model.Device{}, &appErrors.NormalizationError{Domain: "device", Index: index, Field: "device_id"}
	}

	meta := raw.HardwareMetadata
	return model.Device{
		ID:            id,
		Name:          DisplayName(id),
		Type:          stringOr(raw.DeviceType, model.Unknown),
		Status:        DeviceStatus(raw.Status),
		BundleVersion: stringOr(raw.CurrentBundleVersion, model.Unknown),
		LastSeen:      timeOr(raw.LastHeartbeat, n.now()),
		CPUUsage:      metaPercent(meta, "cpu_percent"),
		MemoryUsage:   metaPercent(meta, "memory_percent"),
		Location:      metaString(meta, "region", model.Unknown),
		IPAddress:     metaString(meta, "ip_address", model.Unknown),
	}, nil
}

func (n *Normalizer) Devices(raw []controlplane.RawDevice) ([]model.Device, error) {
	devices := make([]model.Device, 0, len(raw))
	for i, r := range raw {
		d, err := n.Device(i, r)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func (n *Normalizer) Bundle(index int, raw controlplane.RawBundle) (model.Bundle, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return model.Bundle{}, &appErrors.NormalizationError{Domain: "bundle", Index: index, Field: "id"}
	}

	manifest := raw.Manifest
	if manifest == nil {
		manifest = &controlplane.RawManifest{}
	}

	return model.Bundle{
		ID:            id,
		Version:       raw.Version,
		Name:          stringOr(manifest.Name, raw.Version),
		Size:          manifestSize(manifest.Size),
		UploadedAt:    timeOr(raw.CreatedAt, n.now()),
		DeployedCount: nonNegative(raw.DeploymentCount),
		Status:        BundleStatus(manifest.Status),
	}, nil
}

func (n *Normalizer) Bundles(raw []controlplane.RawBundle) ([]model.Bundle, error) {
	bundles := make([]model.Bundle, 0, len(raw))
	for i, r := range raw {
		b, err := n.Bundle(i, r)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

func (n *Normalizer) Deployment(index int, raw controlplane.RawDeployment) (model.Deployment, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return model.Deployment{}, &appErrors.NormalizationError{Domain: "deployment", Index: index, Field: "id"}
	}

	var success, failed int
	for _, target := range raw.TargetDevices {
		switch target.Status {
		case "success":
			success++
		case "failed":
			failed++
		}
	}

	return model.Deployment{
		ID:            id,
		BundleVersion: raw.BundleVersion,
		TargetDevices: len(raw.TargetDevices),
		SuccessCount:  success,
		FailedCount:   failed,
		Status:        DeploymentStatus(raw.Status),
		StartedAt:     timeOr(raw.CreatedAt, n.now()),
		CompletedAt:   optionalTime(raw.CompletedAt),
	}, nil
}

func (n *Normalizer) Deployments(raw []controlplane.RawDeployment) ([]model.Deployment, error) {
	deployments := make([]model.Deployment, 0, len(raw))
	for i, r := range raw {
		d, err := n.Deployment(i, r)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, d)
	}
	return deployments, nil
}

func (n *Normalizer) DeviceConfig(raw *controlplane.RawDeviceConfig) (model.DeviceConfig, error) {
	if raw == nil || strings.TrimSpace(raw.DeviceID) == "" {
		return model.DeviceConfig{}, &appErrors.NormalizationError{Domain: "device_config", Field: "device_id"}
	}
	return model.DeviceConfig{
		ID:               raw.ID,
		DeviceID:         raw.DeviceID,
		Version:          raw.Version,
		PollingInterval:  raw.PollingInterval,
		HeartbeatTimeout: raw.HeartbeatTimeout,
		DeployTimeout:    raw.DeployTimeout,
		LogLevel:         raw.LogLevel,
		Metadata:         raw.MetadataJSON,
		UpdatedAt:        timeOr(raw.UpdatedAt, n.now()),
	}, nil
}

func (n *Normalizer) BundleHistory(raw []controlplane.RawBundleHistory) ([]model.BundleHistoryEntry, error) {
	entries := make([]model.BundleHistoryEntry, 0, len(raw))
	for i, r := range raw {
		if strings.TrimSpace(r.ID) == "" {
			return nil, &appErrors.NormalizationError{Domain: "bundle_history", Index: i, Field: "id"}
		}
		entries = append(entries, model.BundleHistoryEntry{
			ID:              r.ID,
			DeviceID:        r.DeviceID,
			BundleVersion:   r.BundleVersion,
			BundleID:        r.BundleID,
			DeploymentID:    r.DeploymentID,
			Status:          r.Status,
			ErrorMessage:    r.ErrorMessage,
			DeployedAt:      timeOr(r.DeployedAt, n.now()),
			DurationSeconds: r.DurationSeconds,
		})
	}
	return entries, nil
}

// Logs never fails: a log line without a usable timestamp is stamped now.
func (n *Normalizer) Logs(raw []controlplane.RawLog) []model.LogEntry {
	entries := make([]model.LogEntry, 0, len(raw))
	for _, r := range raw {
		ts := r.Timestamp
		entries = append(entries, model.LogEntry{
			Timestamp: timeOr(&ts, n.now()),
			Level:     stringOr(&r.Level, "INFO"),
			Message:   r.Message,
		})
	}
	return entries
}

func manifestSize(raw any) string {
	if raw == nil {
		return model.Unknown
	}
	s, err := cast.ToStringE(raw)
	if err != nil || strings.TrimSpace(s) == "" {
		return model.Unknown
	}
	return strings.TrimSpace(s)
}
