// Package profiler executes single queries under MySQL's server-side
// profiling and turns the plan into heuristic optimization suggestions.
package profiler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sqlpulse/sqlpulse/internal/config"
	"github.com/sqlpulse/sqlpulse/internal/db"
	"github.com/sqlpulse/sqlpulse/internal/logging"
	"github.com/sqlpulse/sqlpulse/internal/model"
)

// Profiler profiles one query at a time on a dedicated connection.
type Profiler struct {
	cfg       config.DB
	log       *logging.Logger
	slowQuery time.Duration
}

// New creates a profiler for the configured server.
func New(cfg config.DB, thresholds model.Thresholds, lg *logging.Logger) *Profiler {
	return &Profiler{cfg: cfg, log: lg, slowQuery: thresholds.SlowQuery()}
}

// Profile runs the query with profiling enabled and returns timings, the
// server's per-stage profile, an EXPLAIN plan for read-only queries, and
// heuristic suggestions. Only the initial connection failure is returned as
// an error; every later step degrades to partial results.
func (p *Profiler) Profile(ctx context.Context, query string, args ...any) (model.ProfileResult, error) {
	result := model.ProfileResult{Query: query}

	client, err := db.Open(ctx, p.cfg, p.log, p.slowQuery)
	if err != nil {
		return result, fmt.Errorf("connect for profiling: %w", err)
	}
	defer client.Close()

	// Profiling is session-scoped, so everything runs on one pinned
	// connection.
	ses, err := client.Session(ctx)
	if err != nil {
		return result, fmt.Errorf("connect for profiling: %w", err)
	}
	defer ses.Close()

	if err := ses.Exec(ctx, "SET profiling = 1"); err != nil {
		p.log.Main.Warn("could not enable profiling", zap.Error(err))
	}
	defer func() {
		_ = ses.Exec(context.WithoutCancel(ctx), "SET profiling = 0")
	}()

	start := time.Now()
	rows, err := ses.QueryMaps(ctx, query, args...)
	result.ExecutionTime = time.Since(start)
	if err != nil {
		p.log.Main.Warn("profiled query failed", zap.Error(err))
	}
	result.RowsReturned = len(rows)

	if id, ok := ses.LastProfileID(ctx); ok {
		stages, err := ses.ProfileStages(ctx, id)
		if err != nil {
			p.log.Main.Warn("could not read query profile", zap.Error(err))
		}
		result.Stages = stages
	}

	if isSelect(query) {
		plan, err := ses.Explain(ctx, query, args...)
		if err != nil {
			p.log.Main.Warn("could not explain query", zap.Error(err))
		}
		result.Plan = plan
	}

	result.Suggestions = Suggest(query, result.ExecutionTime, result.Plan)
	return result, nil
}

func isSelect(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}
