package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

// collectSystem fills the host side of the snapshot. Each probe stands
// alone: a failure leaves its field at zero and records the error without
// touching the others.
func (c *MySQLCollector) collectSystem(ctx context.Context, snap *model.Snapshot) {
	sys := &snap.System

	pcts, err := cpu.PercentWithContext(ctx, c.cpuWindow, false)
	if err != nil {
		c.noteSystemError(sys, "cpu", err)
	} else if len(pcts) > 0 {
		sys.CPUPercent = pcts[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		c.noteSystemError(sys, "memory", err)
	} else {
		sys.MemoryPercent = vm.UsedPercent
	}

	du, err := disk.UsageWithContext(ctx, c.diskPath)
	if err != nil {
		c.noteSystemError(sys, "disk", err)
	} else {
		sys.DiskPercent = du.UsedPercent
	}

	// Load average is unavailable on some platforms; not an error worth
	// surfacing in the snapshot.
	if avg, err := load.AvgWithContext(ctx); err == nil {
		sys.LoadAverage = []float64{avg.Load1, avg.Load5, avg.Load15}
	}
}

func (c *MySQLCollector) noteSystemError(sys *model.SystemMetrics, probe string, err error) {
	c.log.Main.Error("failed to collect system metrics",
		zap.String("probe", probe), zap.Error(err))
	if sys.Error == "" {
		sys.Error = err.Error()
	}
}
