// Package alert compares snapshots against a static threshold set.
package alert

import (
	"fmt"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

// Evaluator holds the threshold set. It carries no other state, so
// Evaluate is a pure function of its input.
type Evaluator struct {
	thresholds model.Thresholds
}

// New creates an evaluator over the given thresholds.
func New(t model.Thresholds) *Evaluator {
	return &Evaluator{thresholds: t}
}

// Thresholds returns the configured limit set.
func (e *Evaluator) Thresholds() model.Thresholds {
	return e.thresholds
}

// Evaluate returns one alert per metric strictly exceeding its threshold.
// Check order is fixed: connections, cpu, memory, disk. The slow-query
// threshold is applied at query-log time, not here. Database checks are
// skipped while the server is unreachable.
func (e *Evaluator) Evaluate(snap model.Snapshot) []model.Alert {
	var alerts []model.Alert

	add := func(metric string, value, threshold float64, message string) {
		alerts = append(alerts, model.Alert{
			Timestamp: snap.Timestamp,
			Metric:    metric,
			Value:     value,
			Threshold: threshold,
			Message:   message,
		})
	}

	if snap.Database.Status == model.StatusConnected &&
		snap.Database.Connections > e.thresholds.Connections {
		add("connections",
			float64(snap.Database.Connections), float64(e.thresholds.Connections),
			fmt.Sprintf("High connection count: %d", snap.Database.Connections))
	}
	if snap.System.CPUPercent > e.thresholds.CPUPercent {
		add("cpu", snap.System.CPUPercent, e.thresholds.CPUPercent,
			fmt.Sprintf("High CPU usage: %.1f%%", snap.System.CPUPercent))
	}
	if snap.System.MemoryPercent > e.thresholds.MemoryPercent {
		add("memory", snap.System.MemoryPercent, e.thresholds.MemoryPercent,
			fmt.Sprintf("High memory usage: %.1f%%", snap.System.MemoryPercent))
	}
	if snap.System.DiskPercent > e.thresholds.DiskPercent {
		add("disk", snap.System.DiskPercent, e.thresholds.DiskPercent,
			fmt.Sprintf("High disk usage: %.1f%%", snap.System.DiskPercent))
	}

	return alerts
}

// Messages flattens alerts to their human-readable strings.
func Messages(alerts []model.Alert) []string {
	msgs := make([]string, len(alerts))
	for i, a := range alerts {
		msgs[i] = a.Message
	}
	return msgs
}
