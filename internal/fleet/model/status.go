package model

type DeviceStatus string

const (
	DeviceOnline   DeviceStatus = "online"
	DeviceOffline  DeviceStatus = "offline"
	DeviceDegraded DeviceStatus = "degraded"
	// DeviceError never comes out of the normalizer but is ranked when present.
	DeviceError DeviceStatus = "error"
)

type BundleStatus string

const (
	BundleActive     BundleStatus = "active"
	BundleTesting    BundleStatus = "testing"
	BundleDeprecated BundleStatus = "deprecated"
)

type DeploymentStatus string

const (
	DeploymentPending    DeploymentStatus = "pending"
	DeploymentInProgress DeploymentStatus = "in_progress"
	DeploymentCompleted  DeploymentStatus = "completed"
	DeploymentFailed     DeploymentStatus = "failed"
)

type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)
