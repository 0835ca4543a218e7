package model

import "time"

type Deployment struct {
	ID            string           `json:"id" yaml:"id"`
	BundleVersion string           `json:"bundleVersion" yaml:"bundleVersion"`
	TargetDevices int              `json:"targetDevices" yaml:"targetDevices"`
	SuccessCount  int              `json:"successCount" yaml:"successCount"`
	FailedCount   int              `json:"failedCount" yaml:"failedCount"`
	Status        DeploymentStatus `json:"status" yaml:"status"`
	StartedAt     time.Time        `json:"startedAt" yaml:"startedAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
}

type DeploymentReceipt struct {
	DeploymentID string `json:"deploymentId"`
	Status       string `json:"status"`
}

type RollbackReceipt struct {
	DeploymentID    string   `json:"deploymentId"`
	Status          string   `json:"status"`
	BundleVersion   string   `json:"bundleVersion"`
	TargetDeviceIDs []string `json:"targetDeviceIds"`
}

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}
