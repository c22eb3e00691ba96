// Package config provides configuration management for the FPD risk server.
// This file contains the lightweight configuration for standalone operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fpd-risk-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external databases and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for data files

	// Cache settings
	CacheMaxItems int           // Maximum items in memory cache
	CacheTTL      time.Duration // Default cache TTL

	// Server settings
	HTTPPort int // HTTP listen port

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".fpd-risk-server")

	return &LiteConfig{
		DataDir:       dataDir,
		CacheMaxItems: 1000,
		CacheTTL:      24 * time.Hour,
		HTTPPort:      8080,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	// Data directory
	if v := os.Getenv("FPD_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Cache settings
	if v := os.Getenv("FPD_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("FPD_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	// Server
	if v := os.Getenv("FPD_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	// Logging
	if v := os.Getenv("FPD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FPD_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// HistoryDBPath returns the path to the assessment history SQLite database.
func (c *LiteConfig) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}

// AsManager adapts the lite configuration to the ConfigManager interface so
// the HTTP server can run in standalone mode.
func (c *LiteConfig) AsManager() domain.ConfigManager {
	return &liteManager{
		cfg: &domain.Config{
			Server: domain.ServerConfig{
				Host:              "0.0.0.0",
				Port:              c.HTTPPort,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       120 * time.Second,
				RequestsPerSecond: 5,
				RequestBurst:      10,
			},
			History: domain.HistoryConfig{Enabled: true},
			Cache: domain.CacheConfig{
				DefaultTTL: c.CacheTTL,
				MaxItems:   c.CacheMaxItems,
			},
			Logging: domain.LoggingConfig{
				Level:  c.LogLevel,
				Format: c.LogFormat,
			},
		},
	}
}

type liteManager struct {
	cfg *domain.Config
}

func (m *liteManager) GetConfig() *domain.Config                 { return m.cfg }
func (m *liteManager) GetServerConfig() *domain.ServerConfig     { return &m.cfg.Server }
func (m *liteManager) GetDatabaseConfig() *domain.DatabaseConfig { return &m.cfg.Database }
func (m *liteManager) Reload() error                             { return nil }
func (m *liteManager) Validate() error                           { return nil }
func (m *liteManager) GetDatabaseConnectionString() string       { return "" }
func (m *liteManager) GetRedisConnectionString() string          { return "" }
func (m *liteManager) IsProduction() bool                        { return false }
func (m *liteManager) IsDevelopment() bool                       { return true }
