package normalize

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"kernex-dashboard/internal/fleet/model"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// stringOr returns the trimmed value, or def when it is nil or blank.
func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	if s := strings.TrimSpace(*v); s != "" {
		return s
	}
	return def
}

// metaString reads a string-like metadata value; numbers are formatted.
func metaString(meta map[string]any, key, def string) string {
	raw, ok := meta[key]
	if !ok || raw == nil {
		return def
	}
	s, err := cast.ToStringE(raw)
	if err != nil || strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

// metaPercent reads a 0-100 percentage that may arrive as a number or a
// numeric string. Anything unreadable is 0.
func metaPercent(meta map[string]any, key string) float64 {
	raw, ok := meta[key]
	if !ok || raw == nil {
		return 0
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0
	}
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return f
}

// timeOr parses an ISO-8601 timestamp. Naive timestamps are UTC, which is
// what the control plane stores.
func timeOr(v *string, def time.Time) time.Time {
	if v == nil {
		return def
	}
	if t, ok := parseTimestamp(*v); ok {
		return t
	}
	return def
}

func optionalTime(v *string) *time.Time {
	if v == nil {
		return nil
	}
	if t, ok := parseTimestamp(*v); ok {
		return &t
	}
	return nil
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func nonNegative(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

// DeviceStatus collapses every value other than the exact strings "online"
// and "offline" to degraded.
func DeviceStatus(raw *string) model.DeviceStatus {
	if raw == nil {
		return model.DeviceDegraded
	}
	switch *raw {
	case "online":
		return model.DeviceOnline
	case "offline":
		return model.DeviceOffline
	default:
		return model.DeviceDegraded
	}
}

// DeploymentStatus maps control-plane deployment states onto the four
// dashboard states. Values are matched exactly; anything else is pending.
func DeploymentStatus(raw *string) model.DeploymentStatus {
	if raw == nil {
		return model.DeploymentPending
	}
	switch *raw {
	case "success", "completed":
		return model.DeploymentCompleted
	case "failed":
		return model.DeploymentFailed
	case "in_progress":
		return model.DeploymentInProgress
	default:
		return model.DeploymentPending
	}
}

// BundleStatus keeps the three known manifest states and treats anything
// else, including absence, as active.
func BundleStatus(raw *string) model.BundleStatus {
	switch model.BundleStatus(stringOr(raw, "")) {
	case model.BundleTesting:
		return model.BundleTesting
	case model.BundleDeprecated:
		return model.BundleDeprecated
	default:
		return model.BundleActive
	}
}

// DisplayName keeps the first two hyphen-delimited segments of a device id.
func DisplayName(deviceID string) string {
	parts := strings.SplitN(deviceID, "-", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "-")
}
