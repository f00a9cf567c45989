// Package config loads betview configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel    string
	HTTPPort    string
	Environment string

	// HTTP
	HTTPRequestTimeout time.Duration
	CORSAllowOrigins   []string
	RunRateLimit       int // scenario invocations per RunRateWindow per client IP; 0 disables
	RunRateWindow      time.Duration

	// Engine
	ReplayDir string
	// StrictReports surfaces malformed reports as errors instead of showing
	// the not-found view. Always on in development.
	StrictReports bool

	// Report cache
	ReportCacheSize int64
	ReportCacheTTL  time.Duration

	// WebSocket hub
	WSPingInterval      time.Duration
	WSPongTimeout       time.Duration
	WSWriteTimeout      time.Duration
	WSMessageBufferSize int

	// Storage
	StorageMode  string // "postgres" or "console"
	HistoryLimit int
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort:    getEnvOrDefault("HTTP_PORT", "8080"),
		Environment: getEnvOrDefault("APP_ENV", EnvProduction),

		HTTPRequestTimeout: getDurationOrDefault("HTTP_REQUEST_TIMEOUT", 60*time.Second),
		CORSAllowOrigins:   getListOrDefault("CORS_ALLOW_ORIGINS", []string{"*"}),
		RunRateLimit:       getIntOrDefault("RUN_RATE_LIMIT", 60),
		RunRateWindow:      getDurationOrDefault("RUN_RATE_WINDOW", time.Minute),

		// Engine defaults
		ReplayDir:     getEnvOrDefault("ENGINE_REPLAY_DIR", "./reports"),
		StrictReports: getBoolOrDefault("STRICT_REPORTS", false),

		// Report cache defaults
		ReportCacheSize: int64(getIntOrDefault("REPORT_CACHE_SIZE", 256)),
		ReportCacheTTL:  getDurationOrDefault("REPORT_CACHE_TTL", 10*time.Minute),

		// WebSocket defaults
		WSPingInterval:      getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSPongTimeout:       getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSWriteTimeout:      getDurationOrDefault("WS_WRITE_TIMEOUT", 5*time.Second),
		WSMessageBufferSize: getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 256),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		HistoryLimit: getIntOrDefault("HISTORY_LIMIT", 100),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "betview"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "betview"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "betview"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	if cfg.Environment == EnvDevelopment {
		cfg.StrictReports = true
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment)
	}

	if c.RunRateLimit < 0 {
		return fmt.Errorf("RUN_RATE_LIMIT cannot be negative, got %d", c.RunRateLimit)
	}

	if c.RunRateLimit > 0 && c.RunRateWindow <= 0 {
		return fmt.Errorf("RUN_RATE_WINDOW must be positive when RUN_RATE_LIMIT is set, got %s", c.RunRateWindow)
	}

	if c.ReplayDir == "" {
		return fmt.Errorf("ENGINE_REPLAY_DIR cannot be empty")
	}

	if c.ReportCacheSize <= 0 {
		return fmt.Errorf("REPORT_CACHE_SIZE must be positive, got %d", c.ReportCacheSize)
	}

	if c.WSPongTimeout <= c.WSPingInterval {
		return fmt.Errorf("WS_PONG_TIMEOUT (%s) must exceed WS_PING_INTERVAL (%s)", c.WSPongTimeout, c.WSPingInterval)
	}

	if c.WSMessageBufferSize <= 0 {
		return fmt.Errorf("WS_MESSAGE_BUFFER_SIZE must be positive, got %d", c.WSMessageBufferSize)
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getListOrDefault splits a comma-separated variable, dropping blank items.
func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for item := range strings.SplitSeq(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}

	return out
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
