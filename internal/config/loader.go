package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// parsers convert one environment value into a field of the keyed kind.
// Durations are matched by type before kind.
var parsers = map[reflect.Kind]func(reflect.Value, string) error{
	reflect.String: func(f reflect.Value, v string) error {
		f.SetString(v)
		return nil
	},
	reflect.Int:   parseInt,
	reflect.Int64: parseInt,
	reflect.Bool: func(f reflect.Value, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		f.SetBool(b)
		return nil
	},
	reflect.Slice: func(f reflect.Value, v string) error {
		if f.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", f.Type().Elem().Kind())
		}
		f.Set(reflect.ValueOf(splitList(v)))
		return nil
	},
}

func parseInt(f reflect.Value, v string) error {
	if f.Type() == durationType {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		f.SetInt(int64(d))
		return nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return err
	}
	f.SetInt(i)
	return nil
}

// splitList splits a comma separated value, dropping blank entries.
func splitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads configuration from environment variables, applies defaults
// and validates the result. Every malformed variable is reported, not just
// the first.
func Load() (*Config, error) {
	cfg := &Config{}

	var errs []string
	populate(reflect.ValueOf(cfg).Elem(), &errs)
	if len(errs) > 0 {
		return nil, fmt.Errorf("config load:\n  - %s", strings.Join(errs, "\n  - "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// populate walks nested sections and fills every field tagged with env.
// The envAlt name is consulted when the primary is unset, then default.
func populate(v reflect.Value, errs *[]string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			populate(fv, errs)
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := lookup(name, sf.Tag.Get("envAlt"))
		if raw == "" {
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}

		parse, ok := parsers[fv.Kind()]
		if !ok {
			*errs = append(*errs, fmt.Sprintf("%s: unsupported field type %s", name, fv.Kind()))
			continue
		}
		if err := parse(fv, raw); err != nil {
			*errs = append(*errs, fmt.Sprintf("%s=%q: %v", name, raw, err))
		}
	}
}

func lookup(names ...string) string {
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

// Validate checks the configuration and reports every violation at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Enabled() {
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}

	if c.Preview.MaxRows <= 0 {
		errs = append(errs, "PREVIEW_MAX_ROWS must be positive")
	}
	if c.Preview.SessionTTL <= 0 {
		errs = append(errs, "PREVIEW_SESSION_TTL must be positive")
	}
	if c.Preview.SweepInterval <= 0 {
		errs = append(errs, "PREVIEW_SWEEP_INTERVAL must be positive")
	}

	if c.Report.Timeout <= 0 {
		errs = append(errs, "REPORT_TIMEOUT must be positive")
	}
	if c.Report.MaxConcurrent <= 0 {
		errs = append(errs, "REPORT_MAX_CONCURRENT must be positive")
	}
	if c.Report.MaxWaitTime <= 0 {
		errs = append(errs, "REPORT_MAX_WAIT_TIME must be positive")
	}
	if c.Report.MaxDays <= 0 {
		errs = append(errs, "REPORT_MAX_DAYS must be positive")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty")
	}

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

// String returns the config for logging with secrets masked.
func (c *Config) String() string {
	dbURL := "[NONE]"
	if c.Database.Enabled() {
		dbURL = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d}, ", dbURL, c.Database.MaxConns)
	fmt.Fprintf(&b, "Preview: {MaxRows: %d, SessionTTL: %s}, ", c.Preview.MaxRows, c.Preview.SessionTTL)
	fmt.Fprintf(&b, "Report: {Timeout: %s, MaxConcurrent: %d}, ", c.Report.Timeout, c.Report.MaxConcurrent)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ", c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Security: {APIKeys: %d, RequireAPIKey: %v}, ", len(c.Security.APIKeys), c.Security.RequireAPIKey)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
