// Package monitor runs the collection loop: collect, evaluate, save, log,
// sleep, forever until stopped.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sqlpulse/sqlpulse/internal/alert"
	"github.com/sqlpulse/sqlpulse/internal/collector"
	"github.com/sqlpulse/sqlpulse/internal/logging"
	"github.com/sqlpulse/sqlpulse/internal/model"
	"github.com/sqlpulse/sqlpulse/internal/store"
)

// BroadcastFunc receives each new snapshot and its alerts, used for the
// websocket stream.
type BroadcastFunc func(snap model.Snapshot, alerts []model.Alert)

// Monitor owns the background collection task. The caller holds the handle:
// Start launches the loop, Stop cancels it cooperatively at the next
// iteration boundary. One Monitor per process.
type Monitor struct {
	collector collector.Collector
	evaluator *alert.Evaluator
	store     *store.Store
	log       *logging.Logger
	interval  time.Duration

	mu         sync.Mutex
	cancel     context.CancelFunc
	broadcast  BroadcastFunc
	lastAlerts []model.Alert
}

// New assembles a monitor. interval is the sleep between iterations.
func New(c collector.Collector, e *alert.Evaluator, s *store.Store, lg *logging.Logger, interval time.Duration) *Monitor {
	if interval < time.Second {
		interval = time.Second
	}
	return &Monitor{
		collector: c,
		evaluator: e,
		store:     s,
		log:       lg,
		interval:  interval,
	}
}

// SetBroadcast sets the function called after each iteration.
func (m *Monitor) SetBroadcast(fn BroadcastFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcast = fn
}

// Start transitions stopped→running and launches the loop. Calling Start on
// a running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.log.Main.Info("database monitoring started",
		zap.Duration("interval", m.interval))
	go m.loop(ctx)
}

// Stop cancels the loop. An in-flight iteration completes first.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
		m.log.Main.Info("database monitoring stopped")
	}
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// ActiveAlerts returns the alerts from the most recent iteration.
func (m *Monitor) ActiveAlerts() []model.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Alert, len(m.lastAlerts))
	copy(out, m.lastAlerts)
	return out
}

func (m *Monitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Run once immediately
	m.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick is one iteration. Every failure mode, panics included, is absorbed
// here so a single bad iteration never terminates monitoring.
func (m *Monitor) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Main.Error("monitoring iteration panicked", zap.Any("panic", r))
		}
	}()

	snap := m.collector.Collect(ctx)
	alerts := m.evaluator.Evaluate(snap)
	m.store.Save(snap)

	for _, a := range alerts {
		m.log.Main.Warn("ALERT: " + a.Message)
	}

	m.log.Main.Info("monitoring summary",
		zap.String("status", string(snap.Database.Status)),
		zap.Int64("connections", snap.Database.Connections),
		zap.Float64("cpu_percent", snap.System.CPUPercent),
		zap.Float64("memory_percent", snap.System.MemoryPercent),
		zap.Int("alerts", len(alerts)))

	m.mu.Lock()
	m.lastAlerts = alerts
	fn := m.broadcast
	m.mu.Unlock()
	if fn != nil {
		fn(snap, alerts)
	}
}
