package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	config := NewConfig()

	require.NotNil(t, config)
	assert.Equal(t, "~/loja/data/loja.db", config.Database.Path)
	assert.Equal(t, "~/loja/data/search.db", config.Search.Path)
	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, 15*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 20, config.Pagination.DefaultSize)
	assert.Equal(t, 2000, config.Pagination.MaxSize)
	assert.Equal(t, 30*time.Second, config.Sync.Interval)
	assert.Equal(t, uint(3), config.Sync.RetryAttempts)
	assert.Equal(t, 100*time.Millisecond, config.Sync.RetryDelay)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, ":8080", config.Addr())
	assert.NoError(t, config.Validate())
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loja.yaml")
	t.Setenv("LOJA_TEST_DIR", dir)

	content := `
server:
  port: "9090"
  write_timeout: 30s
database:
  path: ${LOJA_TEST_DIR}/primary.db
pagination:
  default_size: 5
  max_size: 50
log:
  level: debug
  encoding: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, 30*time.Second, config.Server.WriteTimeout)
	assert.Equal(t, 15*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, filepath.Join(dir, "primary.db"), config.Database.Path)
	assert.Equal(t, "~/loja/data/search.db", config.Search.Path)
	assert.Equal(t, 5, config.Pagination.DefaultSize)
	assert.Equal(t, 50, config.Pagination.MaxSize)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "console", config.Log.Encoding)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDBPath, "/tmp/override.db")
	t.Setenv(EnvIndexPath, "/tmp/override-search.db")
	t.Setenv(EnvPort, "7000")
	t.Setenv(EnvLogLevel, "warn")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", config.Database.Path)
	assert.Equal(t, "/tmp/override-search.db", config.Search.Path)
	assert.Equal(t, "7000", config.Server.Port)
	assert.Equal(t, "warn", config.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	content := `
pagination:
  default_size: 100
  max_size: 10
log:
  level: loud
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Contains(t, err.Error(), "Config.Pagination.MaxSize: gtefield=DefaultSize")
	assert.Contains(t, err.Error(), "Config.Log.Level: oneof=debug info warn error")
}

func TestExpandPath(t *testing.T) {
	expanded := expandPath("~/test/path")
	assert.False(t, strings.HasPrefix(expanded, "~/"), "expected path to be expanded, got %s", expanded)
	assert.True(t, strings.HasSuffix(expanded, filepath.Join("test", "path")))

	assert.Equal(t, "/absolute/path", expandPath("/absolute/path"))
	assert.Equal(t, "relative/path", expandPath("relative/path"))
}
