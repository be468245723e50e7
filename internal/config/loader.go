package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Load reads configuration from environment variables, applies tag
// defaults and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := fromEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// fromEnv fills the env-tagged fields of the section structs under v.
// A field reads its env variable, then envAlt, then its default tag.
func fromEnv(v reflect.Value) error {
	for i := range v.NumField() {
		sf, fv := v.Type().Field(i), v.Field(i)
		if sf.Type.Kind() == reflect.Struct {
			if err := fromEnv(fv); err != nil {
				return err
			}
			continue
		}
		name, ok := sf.Tag.Lookup("env")
		if !ok {
			continue
		}
		raw := firstSet(name, sf.Tag.Get("envAlt"))
		if raw == "" {
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}
		if err := assign(fv.Addr().Interface(), raw); err != nil {
			return fmt.Errorf("%s=%q: %w", name, raw, err)
		}
	}
	return nil
}

// firstSet returns the value of the first non-empty variable among names.
func firstSet(names ...string) string {
	for _, n := range names {
		if n == "" {
			continue
		}
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// assign parses raw into the field behind ptr.
func assign(ptr any, raw string) error {
	var err error
	switch p := ptr.(type) {
	case *string:
		*p = raw
	case *bool:
		*p, err = strconv.ParseBool(raw)
	case *int:
		*p, err = strconv.Atoi(raw)
	case *int64:
		*p, err = strconv.ParseInt(raw, 10, 64)
	case *time.Duration:
		*p, err = time.ParseDuration(raw)
	case *[]string:
		*p = splitList(raw)
	default:
		return fmt.Errorf("unsupported field type %T", ptr)
	}
	return err
}

// splitList splits a comma-separated list, dropping blank items.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.URL == "" && c.Database.MemoryReports <= 0 {
		errs = append(errs, "DB_MEMORY_REPORTS must be positive when DATABASE_URL is empty")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Validation run settings
	if c.Validation.MaxConcurrent <= 0 {
		errs = append(errs, "VALIDATE_MAX_CONCURRENT must be positive")
	}
	if c.Validation.MaxWaitTime <= 0 {
		errs = append(errs, "VALIDATE_MAX_WAIT_TIME must be positive")
	}
	if c.Validation.Workers <= 0 {
		errs = append(errs, "VALIDATE_WORKERS must be positive")
	}
	if c.Validation.Timeout <= 0 {
		errs = append(errs, "VALIDATE_TIMEOUT must be positive")
	}
	if c.Validation.MaxBodySize <= 0 {
		errs = append(errs, "VALIDATE_MAX_BODY_SIZE must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.ValidateLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_VALIDATE must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "API_KEYS must be set when REQUIRE_API_KEY is true")
	}

	// Schedule validation
	if c.Schedule.Spec != "" && len(c.Schedule.Packages) == 0 {
		errs = append(errs, "SCHEDULE_SPEC is set but SCHEDULE_PACKAGES is empty")
	}
	if c.Schedule.Spec != "" {
		if _, err := cron.ParseStandard(c.Schedule.Spec); err != nil {
			errs = append(errs, fmt.Sprintf("SCHEDULE_SPEC (%q) is not a valid cron expression: %v", c.Schedule.Spec, err))
		}
	}

	// Watch validation
	if c.Watch.Debounce < 0 {
		errs = append(errs, "WATCH_DEBOUNCE must be non-negative")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	store := "memory"
	if c.Database.URL != "" {
		store = "[MASKED]"
	}
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d, MinConns: %d}, ",
		store, c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Validation: {MaxConcurrent: %d, Workers: %d, Timeout: %s, DataRoot: %q}, ",
		c.Validation.MaxConcurrent, c.Validation.Workers, c.Validation.Timeout, c.Validation.DataRoot)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: %d, TrustedProxies: %v}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys), c.Security.TrustedProxies)
	fmt.Fprintf(&b, "Schedule: {Spec: %q, Packages: %d}, ", c.Schedule.Spec, len(c.Schedule.Packages))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
