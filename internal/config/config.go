package config

import "time"

// Config is the root configuration for a tracker instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Poller   PollerConfig   `yaml:"poller"`
	HTTP     HTTPConfig     `yaml:"http"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies this tracker.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds market API settings.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Platform    string        `yaml:"platform"` // sent as the Platform header
	Language    string        `yaml:"language"` // sent as the Language header
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`  // 0 disables retries
	MinInterval time.Duration `yaml:"min_interval"` // minimum gap between request starts
}

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver   string   `yaml:"driver"`
	Postgres DBConfig `yaml:"postgres"`
	Migrate  bool     `yaml:"migrate"` // apply embedded migrations on startup
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CatalogConfig controls which remote items are tracked and how often the
// catalog is refreshed.
type CatalogConfig struct {
	TrackedTag          string `yaml:"tracked_tag"`
	NamePrefix          string `yaml:"name_prefix"`
	Category            string `yaml:"category"`
	DefaultTier         int    `yaml:"default_tier"`
	DefaultPollInterval int    `yaml:"default_poll_interval"` // minutes
	Schedule            string `yaml:"schedule"`              // cron expression
}

// PollerConfig holds poll cycle settings.
type PollerConfig struct {
	Schedule   string `yaml:"schedule"` // cron expression
	MaxTier    int    `yaml:"max_tier"`
	Platform   string `yaml:"platform"` // orders on other platforms are discarded
	RunOnStart bool   `yaml:"run_on_start"`

	ItemTimeout time.Duration `yaml:"item_timeout"` // 0 disables the per-item deadline
}

// HTTPConfig holds read API settings.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	HistoryLimit    int           `yaml:"history_limit"`
	BookDepth       int           `yaml:"book_depth"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls the slog handler built at startup.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
