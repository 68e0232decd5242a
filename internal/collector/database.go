package collector

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sqlpulse/sqlpulse/internal/config"
	"github.com/sqlpulse/sqlpulse/internal/db"
	"github.com/sqlpulse/sqlpulse/internal/logging"
	"github.com/sqlpulse/sqlpulse/internal/model"
)

// MySQLCollector gathers database and system metrics into one snapshot.
// It opens and closes one database session per Collect call.
type MySQLCollector struct {
	cfg       config.DB
	log       *logging.Logger
	slowQuery time.Duration

	// cpuWindow is how long the CPU usage probe samples for. Collect blocks
	// for this duration, so keep it well under the monitor interval.
	cpuWindow time.Duration
	diskPath  string
}

// New creates a collector for the configured server.
func New(cfg config.DB, thresholds model.Thresholds, lg *logging.Logger) *MySQLCollector {
	return &MySQLCollector{
		cfg:       cfg,
		log:       lg,
		slowQuery: thresholds.SlowQuery(),
		cpuWindow: time.Second,
		diskPath:  "/",
	}
}

// Collect samples the server and the host. It never returns an error;
// failures degrade the snapshot instead.
func (c *MySQLCollector) Collect(ctx context.Context) model.Snapshot {
	snap := model.Snapshot{Timestamp: time.Now().UTC()}
	c.collectDatabase(ctx, &snap)
	c.collectSystem(ctx, &snap)
	return snap
}

func (c *MySQLCollector) collectDatabase(ctx context.Context, snap *model.Snapshot) {
	client, err := db.Open(ctx, c.cfg, c.log, c.slowQuery)
	if err != nil {
		c.log.Main.Error("failed to connect for metrics collection", zap.Error(err))
		snap.Database.Status = model.StatusDisconnected
		snap.Database.Error = err.Error()
		return
	}
	defer client.Close()

	status, err := client.StatusVariables(ctx)
	if err != nil {
		c.log.Main.Error("failed to collect status variables", zap.Error(err))
		snap.Database.Status = model.StatusError
		snap.Database.Error = err.Error()
		return
	}

	// SHOW PROCESSLIST needs the PROCESS privilege; degrade to an empty
	// list rather than failing the whole collection.
	procs, err := client.ProcessList(ctx)
	if err != nil {
		if db.IsAccessDenied(err) {
			c.log.Main.Warn("SHOW PROCESSLIST requires the PROCESS privilege")
			procs = nil
		} else {
			c.log.Main.Error("failed to read process list", zap.Error(err))
		}
	}

	// Same privilege story for the InnoDB status probe; the text itself is
	// not kept.
	if _, err := client.InnoDBStatus(ctx); err != nil && db.IsAccessDenied(err) {
		c.log.Main.Warn("SHOW ENGINE INNODB STATUS requires the PROCESS privilege")
	}

	dbm := &snap.Database
	dbm.Connections = statusInt(status, "Threads_connected")
	dbm.Queries = statusInt(status, "Queries")
	dbm.SlowQueries = statusInt(status, "Slow_queries")
	dbm.Uptime = statusInt(status, "Uptime")
	dbm.ActiveProcesses = len(procs)
	dbm.BufferPoolPagesData = statusInt(status, "Innodb_buffer_pool_pages_data")
	dbm.BufferPoolPagesTotal = statusInt(status, "Innodb_buffer_pool_pages_total")
	if dbm.Uptime > 0 {
		dbm.QueriesPerSecond = float64(dbm.Queries) / float64(dbm.Uptime)
	}

	// Buffer pool size is a server variable, not a status counter.
	if vars, err := client.ServerVariables(ctx, "innodb_buffer_pool_size"); err == nil {
		dbm.BufferPoolSize = statusInt(vars, "innodb_buffer_pool_size")
	}

	dbm.Status = model.StatusConnected
}

func statusInt(vars map[string]string, name string) int64 {
	n, err := strconv.ParseInt(vars[name], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
