package monitor

import (
	"errors"
	"time"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

// ErrNoMetrics is returned when no snapshots fall inside the report window.
var ErrNoMetrics = errors.New("no metrics available for the specified period")

// Report aggregates the buffered snapshots from the last window.
func (m *Monitor) Report(window time.Duration) (model.Report, error) {
	snaps := m.store.Buffer().Since(time.Now().Add(-window))
	return BuildReport(snaps, window)
}

// BuildReport computes avg/max/min of CPU, memory and connection counts
// over the given snapshots.
func BuildReport(snaps []model.Snapshot, window time.Duration) (model.Report, error) {
	if len(snaps) == 0 {
		return model.Report{}, ErrNoMetrics
	}

	var cpu, memory, conns series
	for _, s := range snaps {
		cpu.add(s.System.CPUPercent)
		memory.add(s.System.MemoryPercent)
		conns.add(float64(s.Database.Connections))
	}

	return model.Report{
		Window:      window,
		Samples:     len(snaps),
		CPU:         cpu.stats(),
		Memory:      memory.stats(),
		Connections: conns.stats(),
	}, nil
}

type series struct {
	sum, min, max float64
	n             int
}

func (s *series) add(v float64) {
	if s.n == 0 || v < s.min {
		s.min = v
	}
	if s.n == 0 || v > s.max {
		s.max = v
	}
	s.sum += v
	s.n++
}

func (s *series) stats() model.MetricStats {
	if s.n == 0 {
		return model.MetricStats{}
	}
	return model.MetricStats{Avg: s.sum / float64(s.n), Max: s.max, Min: s.min}
}
