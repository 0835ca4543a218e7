package controlplane

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Raw payload shapes as the control plane serves them. Optional fields are
// pointers or maps so the normalizer can tell "absent" from "zero".

type RawDevice struct {
	DeviceID             string         `json:"device_id"`
	DeviceType           *string        `json:"device_type"`
	Status               *string        `json:"status"`
	CurrentBundleVersion *string        `json:"current_bundle_version"`
	LastHeartbeat        *string        `json:"last_heartbeat"`
	RegisteredAt         *string        `json:"registered_at"`
	HardwareMetadata     map[string]any `json:"hardware_metadata"`
}

type deviceListResponse struct {
	Devices []RawDevice `json:"devices"`
	Total   int         `json:"total"`
}

type RawManifest struct {
	Name   *string `json:"name"`
	Size   any     `json:"size"`
	Status *string `json:"status"`
}

type RawBundle struct {
	ID              string       `json:"id"`
	Version         string       `json:"version"`
	ChecksumSHA256  string       `json:"checksum_sha256"`
	CreatedAt       *string      `json:"created_at"`
	DeploymentCount *int         `json:"deployment_count"`
	Manifest        *RawManifest `json:"manifest"`
}

type bundleListResponse struct {
	Bundles []RawBundle `json:"bundles"`
}

type RawBundleCreated struct {
	BundleID       string `json:"bundle_id"`
	Version        string `json:"version"`
	ChecksumSHA256 string `json:"checksum_sha256"`
}

// RawTarget is one entry of a deployment's target_devices list. The control
// plane sends bare device ids; richer payloads carry a per-target status.
type RawTarget struct {
	DeviceID string
	Status   string
}

func (t *RawTarget) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.DeviceID)
	}

	var obj struct {
		DeviceID string `json:"device_id"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.DeviceID = obj.DeviceID
	t.Status = obj.Status
	return nil
}

type RawDeployment struct {
	ID            string      `json:"id"`
	BundleID      string      `json:"bundle_id"`
	BundleVersion string      `json:"bundle_version"`
	Status        *string     `json:"status"`
	TargetDevices []RawTarget `json:"target_devices"`
	CreatedAt     *string     `json:"created_at"`
	CompletedAt   *string     `json:"completed_at"`
	ErrorMessage  *string     `json:"error_message"`
}

type deploymentListResponse struct {
	Deployments []RawDeployment `json:"deployments"`
}

type RawDeploymentCreated struct {
	DeploymentID string `json:"deployment_id"`
	Status       string `json:"status"`
}

type RawRollback struct {
	DeploymentID    string   `json:"deployment_id"`
	Status          string   `json:"status"`
	TargetDeviceIDs []string `json:"target_device_ids"`
	BundleVersion   string   `json:"bundle_version"`
}

type RawDeviceConfig struct {
	ID               string         `json:"id"`
	DeviceID         string         `json:"device_id"`
	Version          string         `json:"version"`
	PollingInterval  string         `json:"polling_interval"`
	HeartbeatTimeout string         `json:"heartbeat_timeout"`
	DeployTimeout    string         `json:"deploy_timeout"`
	LogLevel         string         `json:"log_level"`
	MetadataJSON     map[string]any `json:"metadata_json"`
	UpdatedAt        *string        `json:"updated_at"`
}

type RawBundleHistory struct {
	ID              string  `json:"id"`
	DeviceID        string  `json:"device_id"`
	BundleVersion   string  `json:"bundle_version"`
	BundleID        string  `json:"bundle_id"`
	DeploymentID    *string `json:"deployment_id"`
	Status          string  `json:"status"`
	ErrorMessage    *string `json:"error_message"`
	DeployedAt      *string `json:"deployed_at"`
	DurationSeconds *string `json:"duration_seconds"`
}

type RawLog struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

type logListResponse struct {
	Logs  []RawLog `json:"logs"`
	Total int      `json:"total"`
}
