package model

import "time"

// Thresholds is the static limit set the alert evaluator compares snapshots
// against. Read-only after construction.
type Thresholds struct {
	Connections      int64   `yaml:"connections" json:"connections"`
	SlowQuerySeconds float64 `yaml:"slow_query_seconds" json:"slow_query_seconds"`
	CPUPercent       float64 `yaml:"cpu_percent" json:"cpu_percent"`
	MemoryPercent    float64 `yaml:"memory_percent" json:"memory_percent"`
	DiskPercent      float64 `yaml:"disk_percent" json:"disk_percent"`
}

// DefaultThresholds returns the stock limits. They are starting points, not
// policy: every field is overridable through configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Connections:      100,
		SlowQuerySeconds: 5.0,
		CPUPercent:       80.0,
		MemoryPercent:    85.0,
		DiskPercent:      90.0,
	}
}

// SlowQuery returns the slow-query limit as a duration.
func (t Thresholds) SlowQuery() time.Duration {
	return time.Duration(t.SlowQuerySeconds * float64(time.Second))
}

// Alert records one threshold breach observed in a snapshot.
type Alert struct {
	Timestamp time.Time `json:"timestamp"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Message   string    `json:"message"`
}
