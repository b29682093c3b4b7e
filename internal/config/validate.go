package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout < 0 {
		return errors.New("api.timeout must be >= 0")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if c.API.MinInterval < 0 {
		return errors.New("api.min_interval must be >= 0")
	}

	switch c.Storage.Driver {
	case DriverPostgres:
		if err := c.Storage.Postgres.validate("storage.postgres"); err != nil {
			return err
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Storage.Driver)
	}

	if c.Catalog.TrackedTag == "" {
		return errors.New("catalog.tracked_tag is required")
	}
	if c.Catalog.DefaultTier < 1 {
		return errors.New("catalog.default_tier must be >= 1")
	}
	if c.Catalog.DefaultPollInterval < 1 {
		return errors.New("catalog.default_poll_interval must be >= 1")
	}
	if err := validateSchedule("catalog.schedule", c.Catalog.Schedule); err != nil {
		return err
	}

	if err := validateSchedule("poller.schedule", c.Poller.Schedule); err != nil {
		return err
	}
	if c.Poller.MaxTier < 1 {
		return errors.New("poller.max_tier must be >= 1")
	}
	if c.Poller.ItemTimeout < 0 {
		return errors.New("poller.item_timeout must be >= 0")
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.HistoryLimit < 1 {
		return errors.New("http.history_limit must be >= 1")
	}
	if c.HTTP.BookDepth < 1 {
		return errors.New("http.book_depth must be >= 1")
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func validateSchedule(field, spec string) error {
	if spec == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// ParseLevel maps a log.level value to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s)
	}
}
