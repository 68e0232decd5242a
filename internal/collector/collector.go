// Package collector samples the monitored MySQL server and the host OS
// into immutable snapshots.
package collector

import (
	"context"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

// Collector produces one snapshot per call. Implementations never return an
// error: a failed probe is reported inside the snapshot so a bad sample can
// never crash the monitor loop.
type Collector interface {
	Collect(ctx context.Context) model.Snapshot
}
