package aggregate

import (
	"fmt"
	"testing"
	"time"

	"kernex-dashboard/internal/fleet/model"
)

func deployment(status model.DeploymentStatus, startedAt time.Time) model.Deployment {
	return model.Deployment{ID: fmt.Sprintf("dep-%d", startedAt.UnixNano()), Status: status, StartedAt: startedAt}
}

func TestSuccessRateMixed(t *testing.T) {
	now := time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)
	got := SuccessRate([]model.Deployment{
		deployment(model.DeploymentCompleted, now),
		deployment(model.DeploymentCompleted, now),
		deployment(model.DeploymentFailed, now),
	})
	want := model.SuccessRateSummary{Rate: 66.7, Total: 3, Success: 2, Failed: 1}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSuccessRateEmpty(t *testing.T) {
	got := SuccessRate(nil)
	if got != (model.SuccessRateSummary{}) {
		t.Fatalf("empty collection should be all zeros, got %+v", got)
	}
	if Rate(0, 0) != 0 {
		t.Fatalf("Rate(0, 0) should be 0")
	}
}

func TestSuccessRateOtherStatusesOnlyCountTowardTotal(t *testing.T) {
	now := time.Now()
	got := SuccessRate([]model.Deployment{
		deployment(model.DeploymentCompleted, now),
		deployment(model.DeploymentPending, now),
		deployment(model.DeploymentInProgress, now),
	})
	if got.Total != 3 || got.Success != 1 || got.Failed != 0 || got.Rate != 33.3 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestChartSameDaySingleBucket(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	var deployments []model.Deployment
	for h := 1; h <= 5; h++ {
		status := model.DeploymentCompleted
		if h == 3 {
			status = model.DeploymentFailed
		}
		deployments = append(deployments, deployment(status, day.Add(time.Duration(h)*time.Hour)))
	}

	points := Chart(deployments, time.UTC)
	if len(points) != 1 {
		t.Fatalf("expected one bucket, got %d: %+v", len(points), points)
	}
	want := model.ChartDataPoint{Date: "Jan 15", Deployments: 5, Success: 4, Failed: 1}
	if points[0] != want {
		t.Fatalf("got %+v, want %+v", points[0], want)
	}
}

func TestChartKeepsEncounterOrderAndLastSevenBuckets(t *testing.T) {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	var deployments []model.Deployment
	for _, day := range []int{9, 8, 7, 6, 5, 4, 3, 2, 1} {
		deployments = append(deployments, deployment(model.DeploymentCompleted, base.AddDate(0, 0, day-1)))
	}

	points := Chart(deployments, time.UTC)
	if len(points) != ChartWindow {
		t.Fatalf("expected %d buckets, got %d", ChartWindow, len(points))
	}
	want := []string{"Jan 7", "Jan 6", "Jan 5", "Jan 4", "Jan 3", "Jan 2", "Jan 1"}
	for i, p := range points {
		if p.Date != want[i] {
			t.Fatalf("bucket %d = %q, want %q", i, p.Date, want[i])
		}
	}
}

func TestChartUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	started := time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)

	points := Chart([]model.Deployment{deployment(model.DeploymentPending, started)}, loc)
	if len(points) != 1 || points[0].Date != "Mar 1" {
		t.Fatalf("expected label in the chart location, got %+v", points)
	}
	if points[0].Success != 0 || points[0].Failed != 0 || points[0].Deployments != 1 {
		t.Fatalf("pending deployment should only count toward the total: %+v", points[0])
	}
}

func TestMetrics(t *testing.T) {
	now := time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)
	devices := []model.Device{
		{ID: "a", Status: model.DeviceOnline},
		{ID: "b", Status: model.DeviceOnline},
		{ID: "c", Status: model.DeviceOffline},
		{ID: "d", Status: model.DeviceDegraded},
	}
	bundles := []model.Bundle{{ID: "b1"}}
	deployments := []model.Deployment{
		deployment(model.DeploymentCompleted, now.Add(-time.Hour)),
		deployment(model.DeploymentCompleted, now.Add(-23*time.Hour)),
		deployment(model.DeploymentFailed, now.Add(-25*time.Hour)),
	}

	metrics := Metrics(devices, bundles, deployments, now)
	values := make(map[string]any, len(metrics))
	changes := make(map[string]string, len(metrics))
	for _, m := range metrics {
		values[m.Label] = m.Value
		changes[m.Label] = m.Change
	}

	checks := map[string]any{
		"Total Devices":     4,
		"Online Devices":    2,
		"Active Bundles":    1,
		"Deployments (24h)": 2,
		"Avg Rollback Time": "2.4s",
	}
	for label, want := range checks {
		if values[label] != want {
			t.Errorf("%s = %v, want %v", label, values[label], want)
		}
	}
	if got := changes["Online Devices"]; got != "1 offline" {
		t.Errorf("degraded devices must not count as offline, change = %q", got)
	}
}
