// Package config provides configuration management for emocheck.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigSuite is a test suite for config operations.
type ConfigSuite struct {
	suite.Suite
	tempDir     string
	origHomeDir string
}

func (s *ConfigSuite) SetupTest() {
	s.tempDir = s.T().TempDir()

	// Save and override HOME
	s.origHomeDir = os.Getenv("HOME")
	os.Setenv("HOME", s.tempDir)
	os.Unsetenv("EMOCHECK_DATA_DIR")
	os.Unsetenv("EMOCHECK_WORKER_PORT")
	os.Unsetenv("EMOCHECK_DB_DRIVER")
	os.Unsetenv("EMOCHECK_DATABASE_DSN")
}

func (s *ConfigSuite) TearDownTest() {
	os.Setenv("HOME", s.origHomeDir)
	os.Unsetenv("EMOCHECK_WORKER_PORT")
	os.Unsetenv("EMOCHECK_DATABASE_DSN")
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) writeSettings(content string) {
	s.Require().NoError(os.MkdirAll(filepath.Join(s.tempDir, ".emocheck"), 0750))
	s.Require().NoError(os.WriteFile(filepath.Join(s.tempDir, ".emocheck", "settings.json"), []byte(content), 0600))
}

// TestDefault tests default configuration values.
func (s *ConfigSuite) TestDefault() {
	cfg := Default()

	s.Equal(DefaultWorkerPort, cfg.WorkerPort)
	s.Equal(DefaultWorkerHost, cfg.WorkerHost)
	s.Equal(DriverSQLite, cfg.DBDriver)
	s.Equal(4, cfg.MaxConns)
	s.Equal(30, cfg.ReportDays)
	s.Equal(DefaultHistoryLimit, cfg.HistoryLimit)
	s.Equal(DefaultCORSOrigins, cfg.CORSOrigins)
	s.Empty(cfg.CatalogPath)
}

// TestPaths tests data directory and file paths.
func (s *ConfigSuite) TestPaths() {
	s.Equal(filepath.Join(s.tempDir, ".emocheck"), DataDir())
	s.Contains(DBPath(), "emocheck.db")
	s.Contains(SettingsPath(), "settings.json")

	os.Setenv("EMOCHECK_DATA_DIR", "/srv/emocheck")
	defer os.Unsetenv("EMOCHECK_DATA_DIR")
	s.Equal("/srv/emocheck", DataDir())
}

// TestEnsureAll tests directory and settings creation.
func (s *ConfigSuite) TestEnsureAll() {
	s.Require().NoError(EnsureAll())

	info, err := os.Stat(DataDir())
	s.Require().NoError(err)
	s.True(info.IsDir())

	_, err = os.Stat(SettingsPath())
	s.Require().NoError(err)

	// Second call should not error (file exists)
	s.NoError(EnsureSettings())

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(DefaultWorkerPort, cfg.WorkerPort)
	s.Equal(DBPath(), cfg.DatabaseDSN)
}

// TestLoad_TableDriven tests configuration loading with various scenarios.
func (s *ConfigSuite) TestLoad_TableDriven() {
	tests := []struct {
		name           string
		settingsJSON   string
		expectedDriver string
		expectedPort   int
		expectedDays   int
	}{
		{
			name:           "no settings file",
			expectedPort:   DefaultWorkerPort,
			expectedDriver: DriverSQLite,
			expectedDays:   30,
		},
		{
			name:           "custom port",
			settingsJSON:   `{"EMOCHECK_WORKER_PORT": 38888}`,
			expectedPort:   38888,
			expectedDriver: DriverSQLite,
			expectedDays:   30,
		},
		{
			name:           "postgres driver",
			settingsJSON:   `{"EMOCHECK_DB_DRIVER": "postgres", "EMOCHECK_DATABASE_DSN": "host=db user=emo"}`,
			expectedPort:   DefaultWorkerPort,
			expectedDriver: DriverPostgres,
			expectedDays:   30,
		},
		{
			name:           "report days",
			settingsJSON:   `{"EMOCHECK_REPORT_DAYS": 14}`,
			expectedPort:   DefaultWorkerPort,
			expectedDriver: DriverSQLite,
			expectedDays:   14,
		},
		{
			name:           "non-positive values ignored",
			settingsJSON:   `{"EMOCHECK_WORKER_PORT": 0, "EMOCHECK_REPORT_DAYS": -3}`,
			expectedPort:   DefaultWorkerPort,
			expectedDriver: DriverSQLite,
			expectedDays:   30,
		},
		{
			name:           "invalid JSON returns defaults",
			settingsJSON:   `{invalid}`,
			expectedPort:   DefaultWorkerPort,
			expectedDriver: DriverSQLite,
			expectedDays:   30,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			os.Remove(SettingsPath())
			if tt.settingsJSON != "" {
				s.writeSettings(tt.settingsJSON)
			}

			cfg, err := Load()
			s.NoError(err)
			s.NotNil(cfg)
			s.Equal(tt.expectedPort, cfg.WorkerPort)
			s.Equal(tt.expectedDriver, cfg.DBDriver)
			s.Equal(tt.expectedDays, cfg.ReportDays)
		})
	}
}

// TestLoad_Lists tests comma separated settings.
func (s *ConfigSuite) TestLoad_Lists() {
	s.writeSettings(`{
		"EMOCHECK_CORS_ORIGINS": "https://clinic.example, https://app.example",
		"EMOCHECK_CATALOG_PATH": "/etc/emocheck/catalog.yml"
	}`)

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal([]string{"https://clinic.example", "https://app.example"}, cfg.CORSOrigins)
	s.Equal("/etc/emocheck/catalog.yml", cfg.CatalogPath)
}

// TestLoad_EnvOverrides tests environment variables win over the file.
func (s *ConfigSuite) TestLoad_EnvOverrides() {
	s.writeSettings(`{"EMOCHECK_WORKER_PORT": 38888, "EMOCHECK_DB_DRIVER": "sqlite"}`)
	os.Setenv("EMOCHECK_WORKER_PORT", "39999")
	os.Setenv("EMOCHECK_DATABASE_DSN", "/tmp/other.db")

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(39999, cfg.WorkerPort)
	s.Equal("/tmp/other.db", cfg.DatabaseDSN)
}

// TestSplitTrim tests the splitTrim helper function.
func TestSplitTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: []string{}},
		{name: "single value", input: "https://a", expected: []string{"https://a"}},
		{name: "values with spaces", input: " a , b , c ", expected: []string{"a", "b", "c"}},
		{name: "empty values filtered", input: "a,,b,,", expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitTrim(tt.input))
		})
	}
}

// TestGetWorkerPort_WithEnv tests GetWorkerPort with environment variable.
func TestGetWorkerPort_WithEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Setenv("EMOCHECK_WORKER_PORT", "45678")
	assert.Equal(t, 45678, GetWorkerPort())

	// Invalid or zero values fall back to config
	t.Setenv("EMOCHECK_WORKER_PORT", "not-a-number")
	assert.Greater(t, GetWorkerPort(), 0)
	t.Setenv("EMOCHECK_WORKER_PORT", "0")
	assert.Greater(t, GetWorkerPort(), 0)
}

// TestGet tests the global config getter.
func TestGet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := Get()
	require.NotNil(t, cfg)
	assert.Greater(t, cfg.WorkerPort, 0)
	assert.Same(t, cfg, Get())
}
