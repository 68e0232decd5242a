package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sqlpulse/sqlpulse/internal/alert"
	"github.com/sqlpulse/sqlpulse/internal/api"
	"github.com/sqlpulse/sqlpulse/internal/collector"
	"github.com/sqlpulse/sqlpulse/internal/config"
	"github.com/sqlpulse/sqlpulse/internal/db"
	"github.com/sqlpulse/sqlpulse/internal/logging"
	"github.com/sqlpulse/sqlpulse/internal/monitor"
	"github.com/sqlpulse/sqlpulse/internal/practice"
	"github.com/sqlpulse/sqlpulse/internal/profiler"
	"github.com/sqlpulse/sqlpulse/internal/schema"
	"github.com/sqlpulse/sqlpulse/internal/seed"
	"github.com/sqlpulse/sqlpulse/internal/store"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	// Strip the subcommand so config.Load sees only flags.
	os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

	switch cmd {
	case "run":
		cmdRun()
	case "profile":
		cmdProfile()
	case "setup":
		cmdSetup()
	case "seed":
		cmdSeed()
	case "practice":
		cmdPractice()
	case "report":
		cmdReport()
	case "version":
		fmt.Printf("sqlpulse %s\n", version)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, `SQLPulse — MySQL practice toolkit with live monitoring (%s)

Usage:
  %s <command> [flags]

Commands:
  run            Start the monitor loop and HTTP API
  profile        Profile a single query: %s profile "SELECT ..."
  setup          Create practice tables, views and stored routines
  seed           Generate practice data
  practice       Run a guided SQL lesson: %s practice [lesson|all]
  report         Summarize archived metrics
  version        Print version

Flags:
  -config PATH      Config file path (default: config.yaml)
  -listen ADDR      HTTP listen address (default: 127.0.0.1:9915)
  -db-host HOST     MySQL host
  -db-user USER     MySQL user
  -db-password PW   MySQL password
  -db-name NAME     MySQL database (default: practice_db)
  -interval SECS    Collection interval (default: 60)
  -history PATH     SQLite snapshot archive path

Examples:
  %s setup
  %s seed -customers 1000 -products 500 -orders 2000
  %s run
  %s profile "SELECT * FROM orders WHERE status = 'pending'"
  %s practice window
  %s report -hours 24
`, version, exe, exe, exe, exe, exe, exe, exe, exe, exe)
}

// fatal reports to stderr and exits. The zap logger may not exist yet.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func newLogger(cfg *config.Config) *logging.Logger {
	lg, err := logging.New(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		fatal("logging setup failed: %v", err)
	}
	return lg
}

func cmdRun() {
	cfg := config.Load()
	lg := newLogger(cfg)
	defer lg.Sync()

	buffer := store.NewBuffer(cfg.BufferCapacity)
	sink := store.NewFileSink(cfg.LogDir)

	var history *store.History
	if cfg.HistoryPath != "" {
		h, err := store.OpenHistory(cfg.HistoryPath)
		if err != nil {
			fatal("failed to open history archive: %v", err)
		}
		defer h.Close()
		history = h
	}
	st := store.New(buffer, sink, history, lg)

	coll := collector.New(cfg.DB, cfg.Thresholds, lg)
	eval := alert.New(cfg.Thresholds)
	mon := monitor.New(coll, eval, st, lg, time.Duration(cfg.IntervalSeconds)*time.Second)

	hub := api.NewHub(lg.Main)
	go hub.Run()
	mon.SetBroadcast(hub.Broadcast)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon.Start(ctx)
	defer mon.Stop()

	if history != nil {
		go runRetentionPurge(ctx, history, cfg.RetentionHours, lg)
	}

	router := api.NewRouter(api.Deps{
		Monitor:    mon,
		Store:      st,
		Profiler:   profiler.New(cfg.DB, cfg.Thresholds, lg),
		DB:         cfg.DB,
		Thresholds: cfg.Thresholds,
		Log:        lg,
		Hub:        hub,
	})

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: router,
	}

	go func() {
		lg.Main.Info("http server listening",
			zap.String("addr", cfg.Listen),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Main.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	lg.Main.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Main.Warn("http shutdown incomplete", zap.Error(err))
	}
}

func runRetentionPurge(ctx context.Context, history *store.History, hours int, lg *logging.Logger) {
	age := time.Duration(hours) * time.Hour
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := history.PurgeOlderThan(age); err != nil {
				lg.Main.Warn("retention purge failed", zap.Error(err))
			} else if n > 0 {
				lg.Main.Info("retention purge", zap.Int64("removed", n))
			}
		}
	}
}

func cmdProfile() {
	cfg := config.Load()
	lg := newLogger(cfg)
	defer lg.Sync()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fatal("usage: sqlpulse profile \"SELECT ...\"")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := profiler.New(cfg.DB, cfg.Thresholds, lg).Profile(ctx, query)
	if err != nil {
		fatal("profiling failed: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fatal("encoding result: %v", err)
	}
	fmt.Println(string(out))
}

func cmdSetup() {
	cfg := config.Load()
	lg := newLogger(cfg)
	defer lg.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := db.Open(ctx, cfg.DB, lg, cfg.Thresholds.SlowQuery())
	if err != nil {
		fatal("database connection failed: %v", err)
	}
	defer client.Close()

	if err := schema.Setup(ctx, client, lg.Main); err != nil {
		fatal("schema setup failed: %v", err)
	}
	fmt.Println("practice database ready")
}

func cmdSeed() {
	counts := seed.DefaultCounts()
	flag.IntVar(&counts.Customers, "customers", counts.Customers, "Customers to generate")
	flag.IntVar(&counts.Products, "products", counts.Products, "Products to generate")
	flag.IntVar(&counts.Orders, "orders", counts.Orders, "Orders to generate")
	cfg := config.Load()
	lg := newLogger(cfg)
	defer lg.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	client, err := db.Open(ctx, cfg.DB, lg, cfg.Thresholds.SlowQuery())
	if err != nil {
		fatal("database connection failed: %v", err)
	}
	defer client.Close()

	if err := seed.New(client, lg.Main).Run(ctx, counts); err != nil {
		fatal("seeding failed: %v", err)
	}
	fmt.Println("practice data generated")
}

func cmdPractice() {
	cfg := config.Load()
	lg := newLogger(cfg)
	defer lg.Sync()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Println("Available lessons:")
		for _, name := range practice.Names() {
			fmt.Printf("  %s\n", name)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client, err := db.Open(ctx, cfg.DB, lg, cfg.Thresholds.SlowQuery())
	if err != nil {
		fatal("database connection failed: %v", err)
	}
	defer client.Close()

	names := args
	if len(args) == 1 && args[0] == "all" {
		names = practice.Names()
	}
	for _, name := range names {
		lesson, ok := practice.Find(name)
		if !ok {
			fatal("unknown lesson %q (try: %s)", name, strings.Join(practice.Names(), ", "))
		}
		if err := lesson.Run(ctx, client, os.Stdout); err != nil {
			fatal("lesson %q failed: %v", name, err)
		}
		fmt.Println()
	}
}

func cmdReport() {
	hours := flag.Int("hours", 24, "Reporting window in hours")
	cfg := config.Load()
	lg := newLogger(cfg)
	defer lg.Sync()

	if cfg.HistoryPath == "" {
		fatal("no history archive configured (set -history)")
	}
	history, err := store.OpenHistory(cfg.HistoryPath)
	if err != nil {
		fatal("failed to open history archive: %v", err)
	}
	defer history.Close()

	window := time.Duration(*hours) * time.Hour
	now := time.Now()
	snaps, err := history.Range(now.Add(-window), now)
	if err != nil {
		fatal("reading archive: %v", err)
	}

	report, err := monitor.BuildReport(snaps, window)
	if err != nil {
		if errors.Is(err, monitor.ErrNoMetrics) {
			fatal("no metrics recorded in the last %dh", *hours)
		}
		fatal("building report: %v", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fatal("encoding report: %v", err)
	}
	fmt.Println(string(out))
}
