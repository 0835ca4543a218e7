package service

import (
	"context"
	"fmt"
	"time"

	"kernex-dashboard/internal/controlplane"
)

type CheckStatus string

const (
	CheckPass    CheckStatus = "PASS"
	CheckWarning CheckStatus = "WARNING"
	CheckFail    CheckStatus = "FAIL"
)

type CheckResult struct {
	Endpoint       string      `json:"endpoint"`
	Status         CheckStatus `json:"status"`
	Details        string      `json:"details"`
	ResponseTimeMs int64       `json:"responseTimeMs"`
	DataCount      *int        `json:"dataCount,omitempty"`
}

type DiagnosticsSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Failed   int `json:"failed"`
}

// DiagnosticsReport is a one-shot integration check of the control plane.
// It bypasses liveness caching and fallback.
type DiagnosticsReport struct {
	Timestamp  time.Time          `json:"timestamp"`
	APIBaseURL string             `json:"apiBaseUrl"`
	Tests      []CheckResult      `json:"tests"`
	Summary    DiagnosticsSummary `json:"summary"`
}

// Diagnostics probes health, devices, bundles and deployments in order.
func (s *Service) Diagnostics(ctx context.Context) DiagnosticsReport {
	report := DiagnosticsReport{
		Timestamp:  s.now(),
		APIBaseURL: s.client.BaseURL(),
	}

	report.Tests = append(report.Tests, s.check("GET /health", func() (CheckResult, error) {
		if err := s.client.Health(ctx); err != nil {
			return CheckResult{}, err
		}
		return CheckResult{Status: CheckPass, Details: "Backend is responding"}, nil
	}))

	report.Tests = append(report.Tests, s.check("GET /devices", func() (CheckResult, error) {
		raw, err := s.client.ListDevices(ctx)
		if err != nil {
			return CheckResult{}, err
		}
		if len(raw) == 0 {
			return countResult(CheckWarning, 0, "No devices in backend. Database may be empty."), nil
		}
		if !hasDeviceShape(raw[0]) {
			return countResult(CheckWarning, len(raw), fmt.Sprintf("Retrieved %d devices. Missing expected fields. Check mapping.", len(raw))), nil
		}
		return countResult(CheckPass, len(raw), fmt.Sprintf("Retrieved %d devices. Data structure valid.", len(raw))), nil
	}))

	report.Tests = append(report.Tests, s.check("GET /bundles", func() (CheckResult, error) {
		raw, err := s.client.ListBundles(ctx)
		if err != nil {
			return CheckResult{}, err
		}
		if len(raw) == 0 {
			return countResult(CheckWarning, 0, "Retrieved 0 bundles. No bundles uploaded yet."), nil
		}
		return countResult(CheckPass, len(raw), fmt.Sprintf("Retrieved %d bundles.", len(raw))), nil
	}))

	report.Tests = append(report.Tests, s.check("GET /deployments", func() (CheckResult, error) {
		raw, err := s.client.ListDeployments(ctx)
		if err != nil {
			return CheckResult{}, err
		}
		if len(raw) == 0 {
			return countResult(CheckWarning, 0, "Retrieved 0 deployments. No deployments yet. Create one to test."), nil
		}
		return countResult(CheckPass, len(raw), fmt.Sprintf("Retrieved %d deployments.", len(raw))), nil
	}))

	for _, t := range report.Tests {
		switch t.Status {
		case CheckPass:
			report.Summary.Passed++
		case CheckWarning:
			report.Summary.Warnings++
		case CheckFail:
			report.Summary.Failed++
		}
	}
	return report
}

func (s *Service) check(endpoint string, run func() (CheckResult, error)) CheckResult {
	start := s.now()
	result, err := run()
	if err != nil {
		return CheckResult{
			Endpoint: endpoint,
			Status:   CheckFail,
			Details:  fmt.Sprintf("Request failed: %v", err),
		}
	}
	result.Endpoint = endpoint
	result.ResponseTimeMs = s.now().Sub(start).Milliseconds()
	return result
}

func countResult(status CheckStatus, count int, details string) CheckResult {
	return CheckResult{Status: status, Details: details, DataCount: &count}
}

func hasDeviceShape(d controlplane.RawDevice) bool {
	return d.DeviceID != "" && d.Status != nil
}
