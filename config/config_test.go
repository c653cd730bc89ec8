package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_VERSION", "LOG_LEVEL", "SHUTDOWN_TIMEOUT", "HOST", "PORT",
		"CORS_ALLOWED_ORIGINS", "REDIS_ADDR", "REDIS_PASSWORD",
		"RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.Empty(t, cfg.RateLimit.RedisAddr)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
app:
  version: "2.0.0"
  shutdown_timeout: 5s
server:
  port: 8080
ratelimit:
  redis_addr: "localhost:6379"
  window: 30s
activity:
  capacity: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", cfg.App.Version)
	assert.Equal(t, 5*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset keys keep defaults")
	assert.Equal(t, "localhost:6379", cfg.RateLimit.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, 10, cfg.Activity.Capacity)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "server:\n  port: 8080\n")
	t.Setenv("PORT", "9090")
	t.Setenv("APP_VERSION", "3.1.4")
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("RATE_LIMIT_REQUESTS", "7")
	t.Setenv("RATE_LIMIT_WINDOW", "2m")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "3.1.4", cfg.App.Version)
	assert.Equal(t, LogLevelError, cfg.App.LogLevel)
	assert.Equal(t, 7, cfg.RateLimit.Requests)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "redis:6379", cfg.RateLimit.RedisAddr)
}

func TestLoad_MalformedEnvKeepsValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "server: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"log level", func(c *Config) { c.App.LogLevel = "verbose" }, "app.log_level"},
		{"shutdown", func(c *Config) { c.App.ShutdownTimeout = 0 }, "app.shutdown_timeout"},
		{"requests", func(c *Config) { c.RateLimit.Requests = -1 }, "ratelimit.requests"},
		{"window", func(c *Config) { c.RateLimit.Window = 0 }, "ratelimit.window"},
		{"capacity", func(c *Config) { c.Activity.Capacity = 0 }, "activity.capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
}
