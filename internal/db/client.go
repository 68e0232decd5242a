// Package db wraps the MySQL connection the toolkit uses everywhere:
// parameterized statements, per-call commit/rollback, query logging with
// slow-query detection, and typed introspection helpers for the monitor
// and profiler.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/sqlpulse/sqlpulse/internal/config"
	"github.com/sqlpulse/sqlpulse/internal/logging"
)

// Client is a live MySQL session. Open one per unit of work and Close it;
// the monitor opens and closes a Client on every collection tick.
type Client struct {
	db        *sql.DB
	log       *logging.Logger
	slowQuery time.Duration
}

// Open connects to MySQL and verifies the connection with a ping.
// slowQuery is the limit above which executed statements are flagged in the
// query log; zero disables the flag.
func Open(ctx context.Context, cfg config.DB, lg *logging.Logger, slowQuery time.Duration) (*Client, error) {
	pool, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	pool.SetMaxOpenConns(4)
	pool.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to mysql: %w", err)
	}

	return &Client{db: pool, log: lg, slowQuery: slowQuery}, nil
}

// Close releases the underlying pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// QueryMaps runs a SELECT-style statement and returns one map per row,
// keyed by column name. Byte slices are converted to strings so results
// marshal cleanly to JSON.
func (c *Client) QueryMaps(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.logQuery(query, args, time.Since(start), 0, err)
		return nil, err
	}
	result, err := scanMaps(rows)
	c.logQuery(query, args, time.Since(start), int64(len(result)), err)
	return result, err
}

// Exec runs a write statement inside its own transaction: committed on
// success, rolled back on failure. Returns the affected row count.
func (c *Client) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	start := time.Now()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		tx.Rollback()
		c.logQuery(query, args, time.Since(start), 0, err)
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		c.logQuery(query, args, time.Since(start), 0, err)
		return 0, err
	}
	affected, _ := res.RowsAffected()
	c.logQuery(query, args, time.Since(start), affected, nil)
	return affected, nil
}

// Tx runs fn inside one transaction. Used by the practice lessons and the
// seeder for multi-statement work; a returned error rolls everything back.
func (c *Client) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Session pins a single connection, which SET profiling needs: the flag is
// session-scoped and would not follow pool-routed statements.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Session{conn: conn, client: c}, nil
}

func (c *Client) logQuery(query string, args []any, d time.Duration, rows int64, err error) {
	slow := c.slowQuery > 0 && d > c.slowQuery
	fields := []zap.Field{
		zap.String("query", query),
		zap.Any("params", args),
		zap.Float64("execution_time", d.Seconds()),
		zap.Int64("rows_affected", rows),
		zap.Bool("slow_query", slow),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	c.log.Query.Info("query", fields...)

	if slow {
		c.log.Main.Warn("slow query detected",
			zap.Float64("execution_time", d.Seconds()),
			zap.String("query", truncate(query, 100)))
	}
}

// Session is a Client bound to a single underlying connection.
type Session struct {
	conn   *sql.Conn
	client *Client
}

// QueryMaps mirrors Client.QueryMaps on the pinned connection.
func (s *Session) QueryMaps(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		s.client.logQuery(query, args, time.Since(start), 0, err)
		return nil, err
	}
	result, err := scanMaps(rows)
	s.client.logQuery(query, args, time.Since(start), int64(len(result)), err)
	return result, err
}

// Exec runs a statement on the pinned connection without a transaction;
// used for session toggles like SET profiling.
func (s *Session) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.conn.ExecContext(ctx, query, args...)
	return err
}

// Close returns the connection to the pool.
func (s *Session) Close() error {
	return s.conn.Close()
}

func scanMaps(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			// Malformed row shapes are skipped, not fatal.
			continue
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
