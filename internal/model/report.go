package model

import "time"

// MetricStats summarizes one metric over a report window.
type MetricStats struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// Report aggregates recent snapshots for the performance report.
type Report struct {
	Window      time.Duration `json:"window"`
	Samples     int           `json:"samples"`
	CPU         MetricStats   `json:"cpu"`
	Memory      MetricStats   `json:"memory"`
	Connections MetricStats   `json:"connections"`
}
