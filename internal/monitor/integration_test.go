package monitor

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/sqlpulse/sqlpulse/internal/alert"
	"github.com/sqlpulse/sqlpulse/internal/collector"
	"github.com/sqlpulse/sqlpulse/internal/config"
	"github.com/sqlpulse/sqlpulse/internal/logging"
	"github.com/sqlpulse/sqlpulse/internal/model"
	"github.com/sqlpulse/sqlpulse/internal/store"
)

func liveConfig(t *testing.T) config.DB {
	t.Helper()
	dsn := os.Getenv("SQLPULSE_TEST_DSN")
	if dsn == "" {
		t.Skip("SQLPULSE_TEST_DSN not set")
	}
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("invalid SQLPULSE_TEST_DSN: %v", err)
	}
	return config.FromDriver(mc)
}

// One full iteration against a live server: collect, evaluate, store.
func TestTickStoresLiveSnapshot(t *testing.T) {
	cfg := liveConfig(t)
	lg := logging.NewNop()
	thresholds := model.DefaultThresholds()

	st := store.New(store.NewBuffer(10), nil, nil, lg)
	m := New(collector.New(cfg, thresholds, lg), alert.New(thresholds), st, lg, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	m.tick(ctx)

	snap, ok := st.Buffer().Latest()
	if !ok {
		t.Fatal("tick stored no snapshot")
	}
	if snap.Database.Status != model.StatusConnected {
		t.Fatalf("Status = %q (error: %s), want %q",
			snap.Database.Status, snap.Database.Error, model.StatusConnected)
	}
	if snap.Database.Uptime <= 0 {
		t.Errorf("Uptime = %d, want > 0", snap.Database.Uptime)
	}
	if snap.Timestamp.IsZero() {
		t.Error("snapshot timestamp not set")
	}
}
