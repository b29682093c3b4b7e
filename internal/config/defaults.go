package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID          = "wfm-tracker"
	DefaultBaseURL             = "https://api.warframe.market/v2"
	DefaultPlatform            = "pc"
	DefaultLanguage            = "en"
	DefaultAPITimeout          = 30 * time.Second
	DefaultMinInterval         = 350 * time.Millisecond
	DefaultDriver              = DriverPostgres
	DefaultDBPort              = 5432
	DefaultDBSSLMode           = "prefer"
	DefaultMaxConns            = 10
	DefaultMinConns            = 2
	DefaultTrackedTag          = "mod"
	DefaultNamePrefix          = "primed"
	DefaultCategory            = "mod"
	DefaultTier                = 1
	DefaultPollIntervalMinutes = 5
	DefaultSyncSchedule        = "0 */6 * * *"
	DefaultPollSchedule        = "*/5 * * * *"
	DefaultMaxTier             = 1
	DefaultHTTPPort            = 8080
	DefaultHistoryLimit        = 100
	DefaultBookDepth           = 20
	DefaultShutdownTimeout     = 10 * time.Second
	DefaultMetricsPath         = "/metrics"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
)

// ApplyDefaults fills every unset optional field. API.MaxRetries and
// Poller.ItemTimeout are left alone since zero is meaningful.
func (c *Config) ApplyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Platform == "" {
		c.API.Platform = DefaultPlatform
	}
	if c.API.Language == "" {
		c.API.Language = DefaultLanguage
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MinInterval == 0 {
		c.API.MinInterval = DefaultMinInterval
	}

	// Storage defaults
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultDriver
	}
	applyDBDefaults(&c.Storage.Postgres)

	// Catalog defaults
	if c.Catalog.TrackedTag == "" {
		c.Catalog.TrackedTag = DefaultTrackedTag
	}
	if c.Catalog.NamePrefix == "" {
		c.Catalog.NamePrefix = DefaultNamePrefix
	}
	if c.Catalog.Category == "" {
		c.Catalog.Category = DefaultCategory
	}
	if c.Catalog.DefaultTier == 0 {
		c.Catalog.DefaultTier = DefaultTier
	}
	if c.Catalog.DefaultPollInterval == 0 {
		c.Catalog.DefaultPollInterval = DefaultPollIntervalMinutes
	}
	if c.Catalog.Schedule == "" {
		c.Catalog.Schedule = DefaultSyncSchedule
	}

	// Poller defaults
	if c.Poller.Schedule == "" {
		c.Poller.Schedule = DefaultPollSchedule
	}
	if c.Poller.MaxTier == 0 {
		c.Poller.MaxTier = DefaultMaxTier
	}
	if c.Poller.Platform == "" {
		c.Poller.Platform = c.API.Platform
	}

	// HTTP defaults
	if c.HTTP.Port == 0 {
		c.HTTP.Port = DefaultHTTPPort
	}
	if c.HTTP.HistoryLimit == 0 {
		c.HTTP.HistoryLimit = DefaultHistoryLimit
	}
	if c.HTTP.BookDepth == 0 {
		c.HTTP.BookDepth = DefaultBookDepth
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
