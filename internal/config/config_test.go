package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, writeFile(t, "{}\n"))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "api/stac/v0.9/", cfg.Server.APIBase)
	assert.Equal(t, 100, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 100, cfg.Pagination.MaxLimit)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Empty(t, cfg.Auth.Tokens)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
  debug: true
  read_timeout: 5s
pagination:
  default_limit: 20
  max_limit: 50
store:
  driver: badger
  path: /tmp/stac
landing:
  id: test
  description: Test catalog
`)
	t.Setenv("STAC_PAGINATION_MAX_LIMIT", "60")
	t.Setenv("STAC_AUTH_TOKENS", "one,two")
	t.Setenv("STAC_RATE_LIMIT_REQUESTS_PER_MINUTE", "120")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 20, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 60, cfg.Pagination.MaxLimit)
	assert.Equal(t, "badger", cfg.Store.Driver)
	assert.Equal(t, []string{"one", "two"}, cfg.Auth.Tokens)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "test", cfg.Landing.ID)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown driver", "store:\n  driver: postgres\n"},
		{"badger without path", "store:\n  driver: badger\n"},
		{"max below default", "pagination:\n  default_limit: 50\n  max_limit: 10\n"},
		{"bucket required", "assets:\n  s3_check: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "server.cache_max_age", envTransformFunc("STAC_SERVER_CACHE_MAX_AGE"))
	assert.Equal(t, "rate_limit.requests_per_minute", envTransformFunc("STAC_RATE_LIMIT_REQUESTS_PER_MINUTE"))
	assert.Equal(t, "", envTransformFunc("STAC_CONFIG"))
}

func TestLoadEnvLists(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, writeFile(t, "landing:\n  id: test\n"))
	t.Setenv("STAC_AUTH_TOKENS", "alpha, beta")
	t.Setenv("STAC_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example,")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Auth.Tokens)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestEnvValueFunc(t *testing.T) {
	key, value := envValueFunc("STAC_AUTH_TOKENS", "one,two")
	assert.Equal(t, "auth.tokens", key)
	assert.Equal(t, []string{"one", "two"}, value)

	key, value = envValueFunc("STAC_SERVER_ADDR", ":9000")
	assert.Equal(t, "server.addr", key)
	assert.Equal(t, ":9000", value)
}
