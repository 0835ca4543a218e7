package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kernex-dashboard/internal/fleet/model"
)

func TestEmbeddedDataset(t *testing.T) {
	now := time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)
	ds := MustLoadEmbeddedDataset(now)

	devices := ds.Devices()
	if len(devices) != 5 || devices[0].ID != "dev-001" || devices[4].Status != model.DeviceOffline {
		t.Fatalf("unexpected devices %+v", devices)
	}
	if !devices[0].LastSeen.Equal(now.Add(-2 * time.Minute)) {
		t.Fatalf("lastSeen should be anchored at load time, got %v", devices[0].LastSeen)
	}
	if len(ds.Bundles()) != 3 || len(ds.Deployments()) != 2 {
		t.Fatalf("unexpected bundle/deployment counts")
	}
	if dep := ds.Deployments()[0]; dep.CompletedAt == nil || dep.SuccessCount != 24 {
		t.Fatalf("unexpected deployment %+v", dep)
	}
	if chart := ds.Chart(); len(chart) != 7 || chart[0].Date != "Jan 11" {
		t.Fatalf("unexpected chart %+v", chart)
	}
	if rate := ds.SuccessRate(); rate.Rate != 99.8 || rate.Total != 1248 {
		t.Fatalf("unexpected success rate %+v", rate)
	}
	if metrics := ds.Metrics(); len(metrics) != 5 || metrics[0].Label != "Total Devices" {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
}

func TestDatasetAccessorsReturnCopies(t *testing.T) {
	ds := MustLoadEmbeddedDataset(time.Now())

	devices := ds.Devices()
	devices[0].Name = "changed"
	deployments := ds.Deployments()
	*deployments[0].CompletedAt = time.Time{}

	if ds.Devices()[0].Name == "changed" {
		t.Fatalf("device slice is shared")
	}
	if ds.Deployments()[0].CompletedAt.IsZero() {
		t.Fatalf("completedAt pointer is shared")
	}
}

func TestDatasetOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.yaml")
	content := "devices:\n  - id: lab-1\n    name: lab\n    status: online\n    lastSeenAgoSeconds: 10\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ds, err := LoadDataset(path, time.Now())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if devices := ds.Devices(); len(devices) != 1 || devices[0].ID != "lab-1" {
		t.Fatalf("unexpected devices %+v", devices)
	}
	if len(ds.Bundles()) != 0 {
		t.Fatalf("override should replace the embedded dataset")
	}

	if _, err := LoadDataset(filepath.Join(t.TempDir(), "missing.yaml"), time.Now()); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
