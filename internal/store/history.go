package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

// History archives snapshots in a local sqlite file so reports and the
// metrics API can reach further back than the in-memory ring.
type History struct {
	db   *sql.DB
	path string
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		status TEXT NOT NULL,
		connections INTEGER NOT NULL DEFAULT 0,
		queries_per_second REAL NOT NULL DEFAULT 0,
		slow_queries INTEGER NOT NULL DEFAULT 0,
		cpu_percent REAL NOT NULL DEFAULT 0,
		memory_percent REAL NOT NULL DEFAULT 0,
		disk_percent REAL NOT NULL DEFAULT 0,
		raw TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(timestamp);`,
}

// OpenHistory opens (or creates) the sqlite archive and runs migrations.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite single-writer
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history migrations: %w", err)
	}
	return &History{db: db, path: path}, nil
}

// Path returns the archive file path.
func (h *History) Path() string { return h.path }

// Close closes the archive.
func (h *History) Close() error { return h.db.Close() }

// Insert archives one snapshot. The full snapshot travels in the raw JSON
// column; the scalar columns exist for range scans and future downsampling.
func (h *History) Insert(s model.Snapshot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = h.db.Exec(`INSERT INTO snapshots
		(timestamp, status, connections, queries_per_second, slow_queries,
		 cpu_percent, memory_percent, disk_percent, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Timestamp.Unix(), string(s.Database.Status), s.Database.Connections,
		s.Database.QueriesPerSecond, s.Database.SlowQueries,
		s.System.CPUPercent, s.System.MemoryPercent, s.System.DiskPercent,
		string(raw))
	return err
}

// Range returns archived snapshots with from <= timestamp <= to, oldest
// first. Rows with undecodable raw payloads are skipped.
func (h *History) Range(from, to time.Time) ([]model.Snapshot, error) {
	rows, err := h.db.Query(
		`SELECT raw FROM snapshots WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp`,
		from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Snapshot
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var s model.Snapshot
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			continue
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// PurgeOlderThan removes snapshots older than the given duration and
// returns the number deleted.
func (h *History) PurgeOlderThan(age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).Unix()
	res, err := h.db.Exec(`DELETE FROM snapshots WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return err
	}

	for i := current; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
