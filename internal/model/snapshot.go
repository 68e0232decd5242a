// Package model holds the wire and storage types shared across the toolkit.
package model

import "time"

// DBStatus is the connection outcome of one collection pass.
type DBStatus string

const (
	StatusConnected    DBStatus = "connected"
	StatusDisconnected DBStatus = "disconnected"
	StatusError        DBStatus = "error"
)

// DatabaseMetrics is the MySQL side of a snapshot. When Status is not
// connected, Error carries the reason and the counters are zero.
type DatabaseMetrics struct {
	Status               DBStatus `json:"status"`
	Error                string   `json:"error,omitempty"`
	Connections          int64    `json:"connections"`
	Queries              int64    `json:"queries"`
	QueriesPerSecond     float64  `json:"queries_per_second"`
	SlowQueries          int64    `json:"slow_queries"`
	Uptime               int64    `json:"uptime"`
	ActiveProcesses      int      `json:"active_processes"`
	BufferPoolSize       int64    `json:"buffer_pool_size"`
	BufferPoolPagesData  int64    `json:"buffer_pool_pages_data"`
	BufferPoolPagesTotal int64    `json:"buffer_pool_pages_total"`
}

// SystemMetrics is the host side of a snapshot. Probes fail
// independently; Error keeps the first failure.
type SystemMetrics struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	DiskPercent   float64   `json:"disk_percent"`
	LoadAverage   []float64 `json:"load_average,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Snapshot is one timestamped collection of database and system metrics.
type Snapshot struct {
	Timestamp time.Time       `json:"timestamp"`
	Database  DatabaseMetrics `json:"database"`
	System    SystemMetrics   `json:"system"`
}
