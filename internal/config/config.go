package config

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

// DB holds the MySQL connection settings.
type DB struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Params   string `yaml:"params"` // extra DSN parameters, k=v joined by &
}

// DSN renders the go-sql-driver connection string.
func (d DB) DSN() string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
	if d.Params != "" {
		dsn += "&" + d.Params
	}
	return dsn
}

// FromDriver builds a DB from a parsed driver DSN, for callers that start
// from a DSN string instead of discrete settings.
func FromDriver(mc *mysql.Config) DB {
	host, portStr, err := net.SplitHostPort(mc.Addr)
	if err != nil {
		host, portStr = mc.Addr, ""
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		port = 3306
	}
	return DB{Host: host, Port: port, User: mc.User, Password: mc.Passwd, Name: mc.DBName}
}

// Config holds the application configuration.
type Config struct {
	Listen      string `yaml:"listen"`
	LogDir      string `yaml:"log_dir"`
	LogLevel    string `yaml:"log_level"`
	HistoryPath string `yaml:"history"` // sqlite snapshot archive; empty disables

	IntervalSeconds int `yaml:"interval"`
	BufferCapacity  int `yaml:"buffer_capacity"`
	RetentionHours  int `yaml:"retention_hours"`

	DB         DB               `yaml:"db"`
	Thresholds model.Thresholds `yaml:"thresholds"`

	// Parsed from the command line, not YAML.
	ConfigPath string `yaml:"-"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen:          "127.0.0.1:9915",
		LogDir:          "logs",
		LogLevel:        "info",
		HistoryPath:     "sqlpulse.db",
		IntervalSeconds: 60,
		BufferCapacity:  1000,
		RetentionHours:  24,
		DB: DB{
			Host: "localhost",
			Port: 3306,
			User: "root",
			Name: "practice_db",
		},
		Thresholds: model.DefaultThresholds(),
		ConfigPath: "config.yaml",
	}
}

// Load reads configuration with priority: defaults < config.yaml < env vars
// < flags. It expects os.Args to already have the subcommand stripped.
func Load() *Config {
	cfg := Default()

	// Pre-scan for -config so we know which file to read before flag.Parse.
	configPath := cfg.ConfigPath
	for i, arg := range os.Args[1:] {
		if arg == "-config" || arg == "--config" {
			if i+2 < len(os.Args) {
				configPath = os.Args[i+2]
			}
		} else if strings.HasPrefix(arg, "-config=") || strings.HasPrefix(arg, "--config=") {
			configPath = strings.SplitN(arg, "=", 2)[1]
		}
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Printf("[config] warning: failed to parse %s: %v", configPath, err)
		}
	}
	cfg.ConfigPath = configPath

	cfg.applyEnv()

	flag.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "Path to config.yaml")
	flag.StringVar(&cfg.Listen, "listen", cfg.Listen, "HTTP listen address (host:port)")
	flag.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory for log and metrics files")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	flag.StringVar(&cfg.HistoryPath, "history", cfg.HistoryPath, "SQLite snapshot archive path (empty to disable)")
	flag.IntVar(&cfg.IntervalSeconds, "interval", cfg.IntervalSeconds, "Collection interval in seconds")
	flag.IntVar(&cfg.BufferCapacity, "buffer", cfg.BufferCapacity, "In-memory snapshot buffer capacity")
	flag.StringVar(&cfg.DB.Host, "db-host", cfg.DB.Host, "MySQL host")
	flag.IntVar(&cfg.DB.Port, "db-port", cfg.DB.Port, "MySQL port")
	flag.StringVar(&cfg.DB.User, "db-user", cfg.DB.User, "MySQL user")
	flag.StringVar(&cfg.DB.Password, "db-password", cfg.DB.Password, "MySQL password")
	flag.StringVar(&cfg.DB.Name, "db-name", cfg.DB.Name, "MySQL database name")
	flag.Parse()

	cfg.normalize()
	return cfg
}

// applyEnv overlays environment variables onto the config. The DB_* names
// match the practice toolkit's deployment convention.
func (c *Config) applyEnv() {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.DB.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.DB.Port = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.DB.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.DB.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.DB.Name = v
	}
	if v := os.Getenv("SQLPULSE_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("SQLPULSE_LOG_DIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("SQLPULSE_HISTORY"); v != "" {
		c.HistoryPath = v
	}
	if v := os.Getenv("SQLPULSE_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IntervalSeconds = n
		}
	}
}

// normalize clamps nonsense values back to usable ones.
func (c *Config) normalize() {
	if c.IntervalSeconds < 1 {
		c.IntervalSeconds = 1
	}
	if c.BufferCapacity < 1 {
		c.BufferCapacity = Default().BufferCapacity
	}
	if c.RetentionHours < 1 {
		c.RetentionHours = Default().RetentionHours
	}
}
