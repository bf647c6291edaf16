package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DWATCH_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, int64(10485760), cfg.Upload.MaxFileBytes)
	assert.Equal(t, 16, cfg.Upload.MaxBatchFiles)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTTL)
	assert.Equal(t, "dw_session", cfg.Session.CookieName)
	assert.True(t, cfg.Security.RateLimit.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DWATCH_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DWATCH_SERVER_PORT", "9999")
	t.Setenv("DWATCH_LOGGING_LEVEL", "debug")
	t.Setenv("DWATCH_UPLOAD_MAX_BATCH_FILES", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Upload.MaxBatchFiles)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	payload := `
server:
  port: 3000
session:
  idle_ttl: 30m
  cookie_name: custom_session
`
	require.NoError(t, os.WriteFile(configFile, []byte(payload), 0644))
	t.Setenv("DWATCH_CONFIG_FILE", configFile)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, "custom_session", cfg.Session.CookieName)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: 3000\n"), 0644))
	t.Setenv("DWATCH_CONFIG_FILE", configFile)
	t.Setenv("DWATCH_SERVER_PORT", "4000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "bad upload size",
			mutate:  func(c *Config) { c.Upload.MaxFileBytes = -1 },
			wantErr: "max_file_bytes",
		},
		{
			name:    "bad batch size",
			mutate:  func(c *Config) { c.Upload.MaxBatchFiles = 0 },
			wantErr: "max_batch_files",
		},
		{
			name:    "empty cookie name",
			mutate:  func(c *Config) { c.Session.CookieName = "" },
			wantErr: "cookie_name",
		},
		{
			name:    "bad logging output",
			mutate:  func(c *Config) { c.Logging.Output = "syslog" },
			wantErr: "invalid logging output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Server:  ServerConfig{Port: 8080},
				Upload:  UploadConfig{MaxFileBytes: 1, MaxBatchFiles: 1},
				Session: SessionConfig{CookieName: "dw_session"},
			}
			tt.mutate(&cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
