// Package config provides configuration management for emocheck.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Defaults.
const (
	DefaultWorkerPort   = 37880
	DefaultWorkerHost   = "127.0.0.1"
	DefaultDBDriver     = "sqlite"
	DefaultMaxConns     = 4
	DefaultReportDays   = 30
	DefaultHistoryLimit = 500
	DefaultLogLevel     = "info"
)

// DefaultCORSOrigins are allowed when no origins are configured.
var DefaultCORSOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the worker and CLI settings.
type Config struct {
	WorkerHost   string
	DBDriver     string
	DatabaseDSN  string
	CatalogPath  string
	LogLevel     string
	CORSOrigins  []string
	WorkerPort   int
	MaxConns     int
	ReportDays   int
	HistoryLimit int
}

// settingsFile is the on-disk layout of settings.json.
type settingsFile struct {
	WorkerHost   *string `json:"EMOCHECK_WORKER_HOST"`
	DBDriver     *string `json:"EMOCHECK_DB_DRIVER"`
	DatabaseDSN  *string `json:"EMOCHECK_DATABASE_DSN"`
	CatalogPath  *string `json:"EMOCHECK_CATALOG_PATH"`
	LogLevel     *string `json:"EMOCHECK_LOG_LEVEL"`
	CORSOrigins  *string `json:"EMOCHECK_CORS_ORIGINS"`
	WorkerPort   *int    `json:"EMOCHECK_WORKER_PORT"`
	MaxConns     *int    `json:"EMOCHECK_MAX_CONNS"`
	ReportDays   *int    `json:"EMOCHECK_REPORT_DAYS"`
	HistoryLimit *int    `json:"EMOCHECK_HISTORY_LIMIT"`
}

var (
	globalOnce sync.Once
	globalCfg  *Config
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		WorkerHost:   DefaultWorkerHost,
		WorkerPort:   DefaultWorkerPort,
		DBDriver:     DefaultDBDriver,
		MaxConns:     DefaultMaxConns,
		ReportDays:   DefaultReportDays,
		HistoryLimit: DefaultHistoryLimit,
		LogLevel:     DefaultLogLevel,
		CORSOrigins:  append([]string(nil), DefaultCORSOrigins...),
	}
}

// DataDir returns the data directory, ~/.emocheck unless EMOCHECK_DATA_DIR is set.
func DataDir() string {
	if dir := os.Getenv("EMOCHECK_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".emocheck")
}

// DBPath returns the SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), "emocheck.db")
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// EnsureDataDir creates the data directory if needed.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	d := Default()
	corsOrigins := strings.Join(d.CORSOrigins, ",")
	data, err := json.MarshalIndent(settingsFile{
		WorkerHost:   &d.WorkerHost,
		WorkerPort:   &d.WorkerPort,
		DBDriver:     &d.DBDriver,
		MaxConns:     &d.MaxConns,
		ReportDays:   &d.ReportDays,
		HistoryLimit: &d.HistoryLimit,
		LogLevel:     &d.LogLevel,
		CORSOrigins:  &corsOrigins,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureAll creates the data directory and default settings.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// Load reads settings.json over the defaults and applies environment overrides.
// A missing or invalid settings file yields the defaults.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	switch {
	case err == nil:
		var s settingsFile
		if jsonErr := json.Unmarshal(data, &s); jsonErr != nil {
			log.Warn().Err(jsonErr).Str("path", SettingsPath()).Msg("Invalid settings file, using defaults")
		} else {
			cfg.apply(s)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	cfg.applyEnv()
	if cfg.DatabaseDSN == "" && cfg.DBDriver == DriverSQLite {
		cfg.DatabaseDSN = DBPath()
	}
	return cfg, nil
}

func (c *Config) apply(s settingsFile) {
	if s.WorkerHost != nil && *s.WorkerHost != "" {
		c.WorkerHost = *s.WorkerHost
	}
	if s.WorkerPort != nil && *s.WorkerPort > 0 {
		c.WorkerPort = *s.WorkerPort
	}
	if s.DBDriver != nil && *s.DBDriver != "" {
		c.DBDriver = *s.DBDriver
	}
	if s.DatabaseDSN != nil {
		c.DatabaseDSN = *s.DatabaseDSN
	}
	if s.CatalogPath != nil {
		c.CatalogPath = *s.CatalogPath
	}
	if s.LogLevel != nil && *s.LogLevel != "" {
		c.LogLevel = *s.LogLevel
	}
	if s.CORSOrigins != nil {
		if origins := splitTrim(*s.CORSOrigins); len(origins) > 0 {
			c.CORSOrigins = origins
		}
	}
	if s.MaxConns != nil && *s.MaxConns > 0 {
		c.MaxConns = *s.MaxConns
	}
	if s.ReportDays != nil && *s.ReportDays > 0 {
		c.ReportDays = *s.ReportDays
	}
	if s.HistoryLimit != nil && *s.HistoryLimit > 0 {
		c.HistoryLimit = *s.HistoryLimit
	}
}

func (c *Config) applyEnv() {
	if port := envInt("EMOCHECK_WORKER_PORT"); port > 0 {
		c.WorkerPort = port
	}
	if v := os.Getenv("EMOCHECK_WORKER_HOST"); v != "" {
		c.WorkerHost = v
	}
	if v := os.Getenv("EMOCHECK_DB_DRIVER"); v != "" {
		c.DBDriver = v
	}
	if v := os.Getenv("EMOCHECK_DATABASE_DSN"); v != "" {
		c.DatabaseDSN = v
	}
	if v := os.Getenv("EMOCHECK_CATALOG_PATH"); v != "" {
		c.CatalogPath = v
	}
	if v := os.Getenv("EMOCHECK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Get returns the process-wide configuration, loaded once.
func Get() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load config, using defaults")
			cfg = Default()
		}
		globalCfg = cfg
	})
	return globalCfg
}

// GetWorkerPort returns EMOCHECK_WORKER_PORT when valid, otherwise the configured port.
func GetWorkerPort() int {
	if port := envInt("EMOCHECK_WORKER_PORT"); port > 0 {
		return port
	}
	return Get().WorkerPort
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// splitTrim splits a comma separated list and drops empty values.
func splitTrim(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
