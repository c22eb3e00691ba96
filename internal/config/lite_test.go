package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	os.Setenv("FPD_DATA_DIR", "/tmp/test-fpd")
	os.Setenv("FPD_CACHE_MAX_ITEMS", "500")
	os.Setenv("FPD_CACHE_TTL", "12h")
	os.Setenv("FPD_HTTP_PORT", "9090")
	os.Setenv("FPD_LOG_LEVEL", "debug")

	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-fpd", cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadLiteConfig_InvalidValuesIgnored(t *testing.T) {
	clearEnvVars(t)

	os.Setenv("FPD_CACHE_MAX_ITEMS", "not-a-number")
	os.Setenv("FPD_HTTP_PORT", "-1")

	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLiteConfig_HistoryDBPath(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.fpd-risk-server"}

	path := cfg.HistoryDBPath()

	assert.Equal(t, "/home/user/.fpd-risk-server/history.db", path)
}

func TestLiteConfig_ExportDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.fpd-risk-server"}

	path := cfg.ExportDir()

	assert.Equal(t, "/home/user/.fpd-risk-server/exports", path)
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	cfg := &LiteConfig{DataDir: filepath.Join(tmpDir, "fpd")}

	err = cfg.EnsureDataDir()
	require.NoError(t, err)

	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"FPD_DATA_DIR",
		"FPD_CACHE_MAX_ITEMS",
		"FPD_CACHE_TTL",
		"FPD_HTTP_PORT",
		"FPD_LOG_LEVEL",
		"FPD_LOG_FORMAT",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
