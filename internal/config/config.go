// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Validation ValidationConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Schedule   ScheduleConfig
	Watch      WatchConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 5m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// DatabaseConfig holds report store settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string for the report store.
	// Empty keeps reports in memory.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// MemoryReports is how many reports the in-memory store keeps (default: 100)
	MemoryReports int `env:"DB_MEMORY_REPORTS" default:"100"`
}

// ValidationConfig holds validation run settings.
type ValidationConfig struct {
	// MaxConcurrent is the maximum number of parallel validation runs (default: 4)
	MaxConcurrent int `env:"VALIDATE_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a run slot (default: 30s)
	MaxWaitTime time.Duration `env:"VALIDATE_MAX_WAIT_TIME" default:"30s"`

	// Workers is how many resources of one run are processed in parallel (default: 4)
	Workers int `env:"VALIDATE_WORKERS" default:"4"`

	// Timeout is the maximum duration of a single run (default: 10m)
	Timeout time.Duration `env:"VALIDATE_TIMEOUT" default:"10m"`

	// FirstInvalidNumber stops number parsing at the first invalid value (default: false)
	FirstInvalidNumber bool `env:"VALIDATE_FIRST_INVALID_NUMBER" default:"false"`

	// FirstInvalidInteger stops integer parsing at the first invalid value (default: false)
	FirstInvalidInteger bool `env:"VALIDATE_FIRST_INVALID_INTEGER" default:"false"`

	// DataRoot is the directory relative paths of posted descriptors resolve against (default: .)
	DataRoot string `env:"VALIDATE_DATA_ROOT" default:"."`

	// MaxBodySize is the maximum size of a posted descriptor in bytes (default: 1MB)
	MaxBodySize int64 `env:"VALIDATE_MAX_BODY_SIZE" default:"1048576"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ValidateLimit is requests per minute for the validate endpoint (default: 10)
	ValidateLimit int `env:"RATE_LIMIT_VALIDATE" default:"10"`
}

// SecurityConfig holds API access settings.
type SecurityConfig struct {
	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys are the accepted keys, comma separated
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies are CIDRs whose X-Real-IP / X-Forwarded-For headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// ScheduleConfig holds scheduled validation settings.
type ScheduleConfig struct {
	// Spec is a cron expression; empty disables scheduled runs
	Spec string `env:"SCHEDULE_SPEC"`

	// Packages are descriptor paths validated on every tick
	Packages []string `env:"SCHEDULE_PACKAGES"`
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	// Debounce is how long to wait for further changes before re-validating (default: 500ms)
	Debounce time.Duration `env:"WATCH_DEBOUNCE" default:"500ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
