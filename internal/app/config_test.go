package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  http-port: \":8080\"\n")

	cfg, realpath, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, realpath)

	// 显式配置的字段
	assert.Equal(t, ":8080", cfg.Server.HttpPort)

	// 未配置的字段落默认值
	assert.Equal(t, "release", cfg.Server.RunMode)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 10, cfg.App.DefaultPageSize)
	assert.Equal(t, 100, cfg.App.MaxPageSize)
	assert.True(t, cfg.Tracer.Enabled)
	assert.False(t, cfg.Sync.IncludeOwnChanges)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  run-mode: debug
database:
  type: mysql
  host: db:3306
  name: sync
security:
  auth-token-key: not-a-default
  token-expiry: 24h
sync:
  include-own-changes: true
  stats-interval: 30s
`)

	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Server.RunMode)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "db:3306", cfg.Database.Host)
	assert.True(t, cfg.Sync.IncludeOwnChanges)
	assert.Equal(t, 24*time.Hour, cfg.GetTokenExpiry())
	assert.Equal(t, 30*time.Second, cfg.GetStatsInterval())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetTokenExpiryDayFormat(t *testing.T) {
	path := writeConfig(t, "security:\n  token-expiry: 7d\n")

	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.GetTokenExpiry())
}

func TestGetStatsIntervalFallback(t *testing.T) {
	path := writeConfig(t, "sync:\n  stats-interval: nonsense\n")

	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.GetStatsInterval())
}
