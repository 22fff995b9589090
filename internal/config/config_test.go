package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "^NSEI", cfg.Sources.IndexSymbol)
	assert.Equal(t, 30*time.Second, cfg.Sources.RequestTimeout)
	assert.Equal(t, 5, cfg.Cache.RetentionYears)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
	assert.False(t, cfg.Schedule.Enabled)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  port: 8080
storage:
  driver: redis
  redis_addr: localhost:6379
sources:
  request_timeout: 5s
aum:
  year_ids:
    "2024": "2"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("NAVSENTINEL_PORT", "9090")
	t.Setenv("REFRESH_CRON", "0 0 1 * * *")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.Sources.RequestTimeout)
	assert.Equal(t, "2", cfg.Aum.YearIDs["2024"])
	assert.True(t, cfg.Schedule.Enabled)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())
}

func TestValidate_Errors(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Storage.Driver = "mongo"
	assert.Error(t, cfg.Validate())

	cfg.Storage.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "postgres_dsn")

	cfg.Storage.Driver = "memory"
	cfg.Cache.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, cfg.Validate(), "cache.timezone")

	cfg.Cache.Timezone = "UTC"
	cfg.Sources.NavURL = "not a url"
	assert.Error(t, cfg.Validate())
}
