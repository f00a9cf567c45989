package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, "./reports", cfg.ReplayDir)
	assert.False(t, cfg.StrictReports)
	assert.Equal(t, int64(256), cfg.ReportCacheSize)
	assert.Equal(t, 10*time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, "console", cfg.StorageMode)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, "disable", cfg.PostgresSSL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 60, cfg.RunRateLimit)
	assert.Equal(t, time.Minute, cfg.RunRateWindow)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ENGINE_REPLAY_DIR", "/srv/reports")
	t.Setenv("REPORT_CACHE_TTL", "30s")
	t.Setenv("WS_PING_INTERVAL", "2s")
	t.Setenv("WS_PONG_TIMEOUT", "5s")
	t.Setenv("STORAGE_MODE", "postgres")
	t.Setenv("STRICT_REPORTS", "true")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RUN_RATE_LIMIT", "0")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "/srv/reports", cfg.ReplayDir)
	assert.Equal(t, 30*time.Second, cfg.ReportCacheTTL)
	assert.Equal(t, 2*time.Second, cfg.WSPingInterval)
	assert.Equal(t, "postgres", cfg.StorageMode)
	assert.True(t, cfg.StrictReports)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 0, cfg.RunRateLimit)
}

func TestLoadFromEnv_DevelopmentIsStrict(t *testing.T) {
	t.Setenv("APP_ENV", EnvDevelopment)
	t.Setenv("STRICT_REPORTS", "false")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.StrictReports)
}

func TestLoadFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("REPORT_CACHE_SIZE", "lots")
	t.Setenv("REPORT_CACHE_TTL", "soon")
	t.Setenv("STRICT_REPORTS", "maybe")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, int64(256), cfg.ReportCacheSize)
	assert.Equal(t, 10*time.Minute, cfg.ReportCacheTTL)
	assert.False(t, cfg.StrictReports)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:            "8080",
			Environment:         EnvProduction,
			ReplayDir:           "./reports",
			ReportCacheSize:     10,
			WSPingInterval:      time.Second,
			WSPongTimeout:       2 * time.Second,
			WSMessageBufferSize: 8,
			StorageMode:         "console",
			HistoryLimit:        10,
			RunRateLimit:        5,
			RunRateWindow:       time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty-port", mutate: func(c *Config) { c.HTTPPort = "" }, wantErr: "HTTP_PORT"},
		{name: "unknown-env", mutate: func(c *Config) { c.Environment = "staging" }, wantErr: "APP_ENV"},
		{name: "negative-rate", mutate: func(c *Config) { c.RunRateLimit = -1 }, wantErr: "RUN_RATE_LIMIT"},
		{name: "rate-without-window", mutate: func(c *Config) { c.RunRateWindow = 0 }, wantErr: "RUN_RATE_WINDOW"},
		{name: "rate-disabled", mutate: func(c *Config) { c.RunRateLimit, c.RunRateWindow = 0, 0 }},
		{name: "empty-replay-dir", mutate: func(c *Config) { c.ReplayDir = "" }, wantErr: "ENGINE_REPLAY_DIR"},
		{name: "zero-cache", mutate: func(c *Config) { c.ReportCacheSize = 0 }, wantErr: "REPORT_CACHE_SIZE"},
		{name: "pong-before-ping", mutate: func(c *Config) { c.WSPongTimeout = c.WSPingInterval }, wantErr: "WS_PONG_TIMEOUT"},
		{name: "zero-buffer", mutate: func(c *Config) { c.WSMessageBufferSize = 0 }, wantErr: "WS_MESSAGE_BUFFER_SIZE"},
		{name: "bad-storage", mutate: func(c *Config) { c.StorageMode = "s3" }, wantErr: "STORAGE_MODE"},
		{name: "zero-history", mutate: func(c *Config) { c.HistoryLimit = 0 }, wantErr: "HISTORY_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	logger, err := NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	t.Setenv("LOG_LEVEL", "chatty")
	_, err = NewLogger()
	assert.ErrorContains(t, err, "invalid log level")
}
