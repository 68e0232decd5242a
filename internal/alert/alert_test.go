package alert

import (
	"reflect"
	"testing"
	"time"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

func connectedSnapshot() model.Snapshot {
	return model.Snapshot{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Database: model.DatabaseMetrics{
			Status:      model.StatusConnected,
			Connections: 10,
		},
		System: model.SystemMetrics{
			CPUPercent:    20,
			MemoryPercent: 30,
			DiskPercent:   40,
		},
	}
}

// TestStrictThresholds verifies alerts fire only on strict excess:
// value == threshold stays quiet, threshold+1 fires.
func TestStrictThresholds(t *testing.T) {
	e := New(model.DefaultThresholds())

	tests := []struct {
		name        string
		mutate      func(*model.Snapshot)
		wantMetrics []string
	}{
		{
			name:        "all quiet",
			mutate:      func(s *model.Snapshot) {},
			wantMetrics: nil,
		},
		{
			name: "connections at threshold",
			mutate: func(s *model.Snapshot) {
				s.Database.Connections = 100
			},
			wantMetrics: nil,
		},
		{
			name: "connections above threshold",
			mutate: func(s *model.Snapshot) {
				s.Database.Connections = 101
			},
			wantMetrics: []string{"connections"},
		},
		{
			name: "cpu above threshold",
			mutate: func(s *model.Snapshot) {
				s.System.CPUPercent = 80.1
			},
			wantMetrics: []string{"cpu"},
		},
		{
			name: "memory at threshold",
			mutate: func(s *model.Snapshot) {
				s.System.MemoryPercent = 85
			},
			wantMetrics: nil,
		},
		{
			name: "disk above threshold",
			mutate: func(s *model.Snapshot) {
				s.System.DiskPercent = 90.5
			},
			wantMetrics: []string{"disk"},
		},
		{
			name: "everything hot fires in fixed order",
			mutate: func(s *model.Snapshot) {
				s.Database.Connections = 200
				s.System.CPUPercent = 99
				s.System.MemoryPercent = 99
				s.System.DiskPercent = 99
			},
			wantMetrics: []string{"connections", "cpu", "memory", "disk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := connectedSnapshot()
			tt.mutate(&snap)

			var got []string
			for _, a := range e.Evaluate(snap) {
				got = append(got, a.Metric)
			}
			if !reflect.DeepEqual(got, tt.wantMetrics) {
				t.Errorf("Evaluate metrics = %v, want %v", got, tt.wantMetrics)
			}
		})
	}
}

// TestDisconnectedSkipsDatabaseChecks verifies the connection check is
// skipped when the server is unreachable, while system checks still run.
func TestDisconnectedSkipsDatabaseChecks(t *testing.T) {
	e := New(model.DefaultThresholds())
	snap := connectedSnapshot()
	snap.Database.Status = model.StatusDisconnected
	snap.Database.Connections = 500
	snap.System.CPUPercent = 95

	alerts := e.Evaluate(snap)
	if len(alerts) != 1 || alerts[0].Metric != "cpu" {
		t.Fatalf("expected single cpu alert, got %+v", alerts)
	}
}

// TestEvaluateIsDeterministic verifies repeated evaluation of the same
// snapshot yields identical results.
func TestEvaluateIsDeterministic(t *testing.T) {
	e := New(model.DefaultThresholds())
	snap := connectedSnapshot()
	snap.Database.Connections = 150
	snap.System.DiskPercent = 95

	first := e.Evaluate(snap)
	for i := 0; i < 10; i++ {
		if got := e.Evaluate(snap); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

// TestAlertFieldsCarryValues verifies alerts report the offending value and
// the limit it exceeded.
func TestAlertFieldsCarryValues(t *testing.T) {
	e := New(model.DefaultThresholds())
	snap := connectedSnapshot()
	snap.Database.Connections = 101

	alerts := e.Evaluate(snap)
	if len(alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.Value != 101 || a.Threshold != 100 {
		t.Errorf("alert value/threshold = %v/%v, want 101/100", a.Value, a.Threshold)
	}
	if a.Message != "High connection count: 101" {
		t.Errorf("unexpected message %q", a.Message)
	}
	if !a.Timestamp.Equal(snap.Timestamp) {
		t.Errorf("alert timestamp %v does not match snapshot %v", a.Timestamp, snap.Timestamp)
	}
}
