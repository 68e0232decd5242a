package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

// Process is one row of SHOW PROCESSLIST.
type Process struct {
	ID      int64  `json:"id"`
	User    string `json:"user"`
	Host    string `json:"host"`
	DB      string `json:"db,omitempty"`
	Command string `json:"command"`
	Time    int64  `json:"time"`
	State   string `json:"state,omitempty"`
	Info    string `json:"info,omitempty"`
}

// StatusVariables returns SHOW GLOBAL STATUS as a name→value map.
// Rows that fail to scan are skipped.
func (c *Client) StatusVariables(ctx context.Context) (map[string]string, error) {
	return c.nameValueQuery(ctx, "SHOW GLOBAL STATUS")
}

// ServerVariables returns SHOW VARIABLES LIKE pattern as a name→value map.
func (c *Client) ServerVariables(ctx context.Context, pattern string) (map[string]string, error) {
	return c.nameValueQuery(ctx, "SHOW VARIABLES LIKE ?", pattern)
}

func (c *Client) nameValueQuery(ctx context.Context, query string, args ...any) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vars := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			continue
		}
		vars[name] = value
	}
	return vars, rows.Err()
}

// ProcessList returns the server's active sessions. Callers must be ready
// for ErrAccessDenied when the account lacks the PROCESS privilege.
func (c *Client) ProcessList(ctx context.Context) ([]Process, error) {
	rows, err := c.db.QueryContext(ctx, "SHOW PROCESSLIST")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var procs []Process
	for rows.Next() {
		var (
			p                     Process
			db, state, info, user sql.NullString
			host, command         sql.NullString
		)
		if err := rows.Scan(&p.ID, &user, &host, &db, &command, &p.Time, &state, &info); err != nil {
			continue
		}
		p.User = user.String
		p.Host = host.String
		p.DB = db.String
		p.Command = command.String
		p.State = state.String
		p.Info = info.String
		procs = append(procs, p)
	}
	return procs, rows.Err()
}

// InnoDBStatus fetches SHOW ENGINE INNODB STATUS. The monitor only uses it
// as a privilege probe and discards the text on anything but debug logging.
func (c *Client) InnoDBStatus(ctx context.Context) (string, error) {
	var typ, name, status string
	err := c.db.QueryRowContext(ctx, "SHOW ENGINE INNODB STATUS").Scan(&typ, &name, &status)
	if err != nil {
		return "", err
	}
	return status, nil
}

// Explain runs EXPLAIN on the query and normalizes each table access into a
// model.PlanRow. Rows with unexpected shapes are skipped.
func (c *Client) Explain(ctx context.Context, query string, args ...any) ([]model.PlanRow, error) {
	maps, err := c.QueryMaps(ctx, "EXPLAIN "+query, args...)
	if err != nil {
		return nil, err
	}
	return planFromMaps(maps), nil
}

// planFromMaps converts driver row maps into the normalized plan records
// the suggestion heuristics consume.
func planFromMaps(maps []map[string]any) []model.PlanRow {
	plan := make([]model.PlanRow, 0, len(maps))
	for _, row := range maps {
		plan = append(plan, model.PlanRow{
			ID:           mapInt(row, "id"),
			SelectType:   mapString(row, "select_type"),
			Table:        mapString(row, "table"),
			AccessType:   mapString(row, "type"),
			PossibleKeys: mapString(row, "possible_keys"),
			Key:          mapString(row, "key"),
			Rows:         mapInt(row, "rows"),
			Extra:        mapString(row, "Extra"),
		})
	}
	return plan
}

// LastProfileID returns the Query_ID of the most recent entry in
// SHOW PROFILES, or false when profiling recorded nothing.
func (s *Session) LastProfileID(ctx context.Context) (int64, bool) {
	maps, err := s.QueryMaps(ctx, "SHOW PROFILES")
	if err != nil || len(maps) == 0 {
		return 0, false
	}
	id := mapInt(maps[len(maps)-1], "Query_ID")
	if id == 0 {
		return 0, false
	}
	return id, true
}

// ProfileStages returns the per-stage timings for one profiled query.
func (s *Session) ProfileStages(ctx context.Context, queryID int64) ([]model.ProfileStage, error) {
	maps, err := s.QueryMaps(ctx, "SHOW PROFILE FOR QUERY "+strconv.FormatInt(queryID, 10))
	if err != nil {
		return nil, err
	}
	stages := make([]model.ProfileStage, 0, len(maps))
	for _, row := range maps {
		stages = append(stages, model.ProfileStage{
			Status:   mapString(row, "Status"),
			Duration: mapFloat(row, "Duration"),
		})
	}
	return stages, nil
}

// Explain mirrors Client.Explain on the pinned connection.
func (s *Session) Explain(ctx context.Context, query string, args ...any) ([]model.PlanRow, error) {
	maps, err := s.QueryMaps(ctx, "EXPLAIN "+query, args...)
	if err != nil {
		return nil, err
	}
	return planFromMaps(maps), nil
}

// MySQL error numbers for missing privileges on introspection statements.
const (
	errSpecificAccessDenied = 1227 // ER_SPECIFIC_ACCESS_DENIED_ERROR
	errTableAccessDenied    = 1142 // ER_TABLEACCESS_DENIED_ERROR
	errDBAccessDenied       = 1044 // ER_DBACCESS_DENIED_ERROR
)

// IsAccessDenied reports whether err is a MySQL privilege failure, the
// degrade-gracefully case for SHOW PROCESSLIST and the InnoDB probe.
func IsAccessDenied(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errSpecificAccessDenied, errTableAccessDenied, errDBAccessDenied:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "Access denied")
}

func mapString(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func mapInt(row map[string]any, key string) int64 {
	switch v := row[key].(type) {
	case int64:
		return v
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func mapFloat(row map[string]any, key string) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}
