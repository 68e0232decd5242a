// Package logging builds the zap loggers the rest of the toolkit receives
// at construction. Nothing here is a package global: callers own the handle
// and pass it down.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger bundles the two log streams the toolkit writes.
//
// Main fans out to monitor.log (info and up), errors.log (errors only) and
// the console (warnings and up). Query writes one JSON record per executed
// statement to queries.log.
type Logger struct {
	Main  *zap.Logger
	Query *zap.Logger
}

// New creates a Logger writing under dir. If dir cannot be created the
// current directory is used instead, matching the monitor's
// keep-running-at-all-costs posture.
func New(dir, level string) (*Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot create log directory %s: %v\n", dir, err)
		dir = "."
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEnc := zapcore.NewJSONEncoder(enc)

	monitorFile, err := openLog(filepath.Join(dir, "monitor.log"))
	if err != nil {
		return nil, err
	}
	errorFile, err := openLog(filepath.Join(dir, "errors.log"))
	if err != nil {
		return nil, err
	}
	queryFile, err := openLog(filepath.Join(dir, "queries.log"))
	if err != nil {
		return nil, err
	}

	errorsOnly := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel
	})
	main := zap.New(zapcore.NewTee(
		zapcore.NewCore(jsonEnc, monitorFile, lvl),
		zapcore.NewCore(jsonEnc, errorFile, errorsOnly),
		zapcore.NewCore(jsonEnc, zapcore.Lock(os.Stderr), zapcore.WarnLevel),
	))

	query := zap.New(zapcore.NewCore(jsonEnc, queryFile, zapcore.InfoLevel))

	return &Logger{Main: main, Query: query}, nil
}

// NewNop returns a Logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{Main: zap.NewNop(), Query: zap.NewNop()}
}

// Sync flushes buffered entries. Call before exit; sync errors on console
// sinks are harmless and ignored.
func (l *Logger) Sync() {
	_ = l.Main.Sync()
	_ = l.Query.Sync()
}

func openLog(path string) (zapcore.WriteSyncer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return zapcore.Lock(zapcore.AddSync(f)), nil
}
