package model

// Metric is one dashboard summary card. Value is either a count or a
// preformatted display string.
type Metric struct {
	Label  string `json:"label" yaml:"label"`
	Value  any    `json:"value" yaml:"value"`
	Change string `json:"change,omitempty" yaml:"change,omitempty"`
	Trend  Trend  `json:"trend,omitempty" yaml:"trend,omitempty"`
}

type ChartDataPoint struct {
	Date        string `json:"date" yaml:"date"`
	Deployments int    `json:"deployments" yaml:"deployments"`
	Success     int    `json:"success" yaml:"success"`
	Failed      int    `json:"failed" yaml:"failed"`
}

type SuccessRateSummary struct {
	Rate    float64 `json:"rate" yaml:"rate"`
	Total   int     `json:"total" yaml:"total"`
	Success int     `json:"success" yaml:"success"`
	Failed  int     `json:"failed" yaml:"failed"`
}

// Overview bundles every dashboard panel. Panels are fetched independently
// and may reflect different instants.
type Overview struct {
	Metrics     []Metric           `json:"metrics"`
	Chart       []ChartDataPoint   `json:"chart"`
	SuccessRate SuccessRateSummary `json:"successRate"`
	Devices     []Device           `json:"devices"`
	Errors      map[string]string  `json:"errors,omitempty"`
}
