package model

import "time"

// Unknown is the sentinel for string fields the control plane left out.
const Unknown = "unknown"

type Device struct {
	ID            string       `json:"id" yaml:"id"`
	Name          string       `json:"name" yaml:"name"`
	Type          string       `json:"type" yaml:"type"`
	Status        DeviceStatus `json:"status" yaml:"status"`
	BundleVersion string       `json:"bundleVersion" yaml:"bundleVersion"`
	LastSeen      time.Time    `json:"lastSeen" yaml:"lastSeen"`
	CPUUsage      float64      `json:"cpuUsage" yaml:"cpuUsage"`
	MemoryUsage   float64      `json:"memoryUsage" yaml:"memoryUsage"`
	Location      string       `json:"location" yaml:"location"`
	IPAddress     string       `json:"ipAddress" yaml:"ipAddress"`
}

type DeviceConfig struct {
	ID               string         `json:"id"`
	DeviceID         string         `json:"deviceId"`
	Version          string         `json:"version"`
	PollingInterval  string         `json:"pollingInterval"`
	HeartbeatTimeout string         `json:"heartbeatTimeout"`
	DeployTimeout    string         `json:"deployTimeout"`
	LogLevel         string         `json:"logLevel"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type BundleHistoryEntry struct {
	ID              string    `json:"id"`
	DeviceID        string    `json:"deviceId"`
	BundleVersion   string    `json:"bundleVersion"`
	BundleID        string    `json:"bundleId"`
	DeploymentID    *string   `json:"deploymentId,omitempty"`
	Status          string    `json:"status"`
	ErrorMessage    *string   `json:"errorMessage,omitempty"`
	DeployedAt      time.Time `json:"deployedAt"`
	DurationSeconds *string   `json:"durationSeconds,omitempty"`
}
