// Package aggregate derives dashboard summaries from normalized collections.
package aggregate

import (
	"fmt"
	"math"
	"time"

	"kernex-dashboard/internal/fleet/model"
)

const (
	// ChartWindow is the number of buckets kept for the deployment chart.
	ChartWindow = 7
	// ChartLabelLayout renders bucket labels such as "Jan 2".
	ChartLabelLayout = "Jan 2"

	recentDeploymentWindow = 24 * time.Hour

	rollbackLatencyValue  = "2.4s"
	rollbackLatencyChange = "-0.3s"
)

// Metrics builds the summary cards. The 24h deployment count is measured
// against now, not against any window reported by the control plane.
func Metrics(devices []model.Device, bundles []model.Bundle, deployments []model.Deployment, now time.Time) []model.Metric {
	online, offline := 0, 0
	for _, d := range devices {
		switch d.Status {
		case model.DeviceOnline:
			online++
		case model.DeviceOffline:
			offline++
		}
	}

	recent := 0
	for _, d := range deployments {
		if now.Sub(d.StartedAt) < recentDeploymentWindow {
			recent++
		}
	}

	bundleChange := "0"
	if len(bundles) > 0 {
		bundleChange = "+1"
	}

	return []model.Metric{
		{Label: "Total Devices", Value: len(devices), Change: fmt.Sprintf("+%d", online), Trend: model.TrendUp},
		{Label: "Online Devices", Value: online, Change: fmt.Sprintf("%d offline", offline), Trend: model.TrendNeutral},
		{Label: "Active Bundles", Value: len(bundles), Change: bundleChange, Trend: model.TrendUp},
		{Label: "Deployments (24h)", Value: recent, Change: "-3", Trend: model.TrendDown},
		{Label: "Avg Rollback Time", Value: rollbackLatencyValue, Change: rollbackLatencyChange, Trend: model.TrendUp},
	}
}

// Chart groups deployments by calendar day in loc. Buckets keep the order
// in which their first deployment was encountered and only the last
// ChartWindow of them are returned, so an unsorted input yields an
// unsorted series.
func Chart(deployments []model.Deployment, loc *time.Location) []model.ChartDataPoint {
	if loc == nil {
		loc = time.Local
	}

	index := make(map[string]int)
	points := make([]model.ChartDataPoint, 0)
	for _, d := range deployments {
		label := d.StartedAt.In(loc).Format(ChartLabelLayout)
		i, ok := index[label]
		if !ok {
			i = len(points)
			index[label] = i
			points = append(points, model.ChartDataPoint{Date: label})
		}

		points[i].Deployments++
		switch d.Status {
		case model.DeploymentCompleted:
			points[i].Success++
		case model.DeploymentFailed:
			points[i].Failed++
		}
	}

	if len(points) > ChartWindow {
		points = points[len(points)-ChartWindow:]
	}
	return points
}

// SuccessRate counts completed and failed deployments. Other statuses only
// count toward the total.
func SuccessRate(deployments []model.Deployment) model.SuccessRateSummary {
	summary := model.SuccessRateSummary{Total: len(deployments)}
	for _, d := range deployments {
		switch d.Status {
		case model.DeploymentCompleted:
			summary.Success++
		case model.DeploymentFailed:
			summary.Failed++
		}
	}
	summary.Rate = Rate(summary.Success, summary.Total)
	return summary
}

// Rate is success/total as a percentage rounded to one decimal, or 0 when
// total is 0.
func Rate(success, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(success)/float64(total)*1000) / 10
}
