package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("WORKER_APP", "counter")
	t.Setenv("WORKER_TICK_INTERVAL", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, AppCounter, cfg.Worker.App)
	assert.Equal(t, 250*time.Millisecond, cfg.Worker.TickInterval)
}

func TestLoadFileYAMLOverlaysEnv(t *testing.T) {
	t.Setenv("PORT", "9100")
	path := writeFile(t, "workerview.yaml", `
server:
  port: "7000"
logging:
  level: debug
worker:
  app: ticker
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, AppTicker, cfg.Worker.App)
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, "workerview.toml", `
[redis]
addr = "redis:6380"
channel = "ui"

[rate_limit]
enabled = false
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "ui", cfg.Redis.Channel)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadFileRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, "workerview.ini", "port=1")
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "unknown app", mutate: func(c *Config) { c.Worker.App = "clock" }, wantErr: true},
		{name: "script without path", mutate: func(c *Config) { c.Worker.App = AppScript }, wantErr: true},
		{name: "script with path", mutate: func(c *Config) {
			c.Worker.App = AppScript
			c.Worker.Script = "app.js"
		}},
		{name: "zero tick", mutate: func(c *Config) { c.Worker.TickInterval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServerOriginsAndAddr(t *testing.T) {
	t.Setenv("ALLOW_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("HOST", "127.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}
