package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileSink appends snapshots to an append-only JSON-lines file named by the
// current calendar date, one object per line. Each Append is independently
// durable once the write returns; the file rotates naturally at midnight
// because the name changes.
type FileSink struct {
	dir string
}

// NewFileSink writes metrics files under dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Append serializes v and appends it as one line to today's metrics file.
func (f *FileSink) Append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	file, err := os.OpenFile(f.path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open metrics file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

// Path returns today's metrics file path.
func (f *FileSink) Path() string { return f.path() }

func (f *FileSink) path() string {
	return filepath.Join(f.dir, fmt.Sprintf("metrics_%s.json", time.Now().Format("20060102")))
}
