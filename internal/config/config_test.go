package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-tracker
api:
  base_url: https://example.test/v2
  min_interval: 500ms
storage:
  driver: postgres
  migrate: true
  postgres:
    host: localhost
    port: 5432
    name: wfm
    user: testuser
    password: testpass
poller:
  max_tier: 2
  item_timeout: 45s
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-tracker" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-tracker")
	}
	if cfg.API.BaseURL != "https://example.test/v2" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "https://example.test/v2")
	}
	if cfg.API.MinInterval != 500*time.Millisecond {
		t.Errorf("API.MinInterval = %v, want 500ms", cfg.API.MinInterval)
	}
	if !cfg.Storage.Migrate {
		t.Error("Storage.Migrate = false, want true")
	}
	if cfg.Storage.Postgres.Host != "localhost" {
		t.Errorf("Storage.Postgres.Host = %q, want %q", cfg.Storage.Postgres.Host, "localhost")
	}
	if cfg.Poller.MaxTier != 2 {
		t.Errorf("Poller.MaxTier = %d, want 2", cfg.Poller.MaxTier)
	}
	if cfg.Poller.ItemTimeout != 45*time.Second {
		t.Errorf("Poller.ItemTimeout = %v, want 45s", cfg.Poller.ItemTimeout)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
storage:
  postgres:
    host: localhost
    name: wfm
    user: testuser
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.Postgres.Password != "secret123" {
		t.Errorf("Storage.Postgres.Password = %q, want %q", cfg.Storage.Postgres.Password, "secret123")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("api: [unclosed")); err == nil {
		t.Error("expected error for invalid yaml, got nil")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
storage:
  driver: memory
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want default %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.API.MinInterval != DefaultMinInterval {
		t.Errorf("API.MinInterval = %v, want default %v", cfg.API.MinInterval, DefaultMinInterval)
	}
	if cfg.API.MaxRetries != 0 {
		t.Errorf("API.MaxRetries = %d, want 0", cfg.API.MaxRetries)
	}
	if cfg.Storage.Postgres.Port != DefaultDBPort {
		t.Errorf("Storage.Postgres.Port = %d, want default %d", cfg.Storage.Postgres.Port, DefaultDBPort)
	}
	if cfg.Catalog.NamePrefix != DefaultNamePrefix || cfg.Catalog.TrackedTag != DefaultTrackedTag {
		t.Errorf("Catalog prefix/tag = %q/%q, want defaults", cfg.Catalog.NamePrefix, cfg.Catalog.TrackedTag)
	}
	if cfg.Catalog.DefaultPollInterval != DefaultPollIntervalMinutes {
		t.Errorf("Catalog.DefaultPollInterval = %d, want %d", cfg.Catalog.DefaultPollInterval, DefaultPollIntervalMinutes)
	}
	if cfg.Poller.Platform != DefaultPlatform {
		t.Errorf("Poller.Platform = %q, want %q", cfg.Poller.Platform, DefaultPlatform)
	}
	if cfg.HTTP.HistoryLimit != DefaultHistoryLimit || cfg.HTTP.BookDepth != DefaultBookDepth {
		t.Errorf("HTTP limits = %d/%d, want %d/%d", cfg.HTTP.HistoryLimit, cfg.HTTP.BookDepth, DefaultHistoryLimit, DefaultBookDepth)
	}
	if cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want default %q", cfg.Metrics.Path, DefaultMetricsPath)
	}
}

func TestApplyDefaults_PollerPlatformFollowsAPI(t *testing.T) {
	cfg := &Config{API: APIConfig{Platform: "ps4"}}
	cfg.ApplyDefaults()

	if cfg.Poller.Platform != "ps4" {
		t.Errorf("Poller.Platform = %q, want api platform %q", cfg.Poller.Platform, "ps4")
	}
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = DriverMemory
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Storage.Postgres.Host = "localhost"
		cfg.Storage.Postgres.Name = "wfm"
		cfg.Storage.Postgres.User = "user"
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "missing postgres host",
			mutate:  func(c *Config) { c.Storage.Postgres.Host = "" },
			wantErr: "storage.postgres.host is required",
		},
		{
			name:    "memory driver ignores postgres",
			mutate:  func(c *Config) { c.Storage.Driver = DriverMemory; c.Storage.Postgres = DBConfig{} },
			wantErr: "",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "sqlite" },
			wantErr: `storage.driver must be "postgres" or "memory", got "sqlite"`,
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Storage.Postgres.MaxConns = 5
				c.Storage.Postgres.MinConns = 10
			},
			wantErr: "storage.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.API.MaxRetries = -1 },
			wantErr: "api.max_retries must be >= 0",
		},
		{
			name:    "missing poller schedule",
			mutate:  func(c *Config) { c.Poller.Schedule = "" },
			wantErr: "poller.schedule is required",
		},
		{
			name:    "zero max tier",
			mutate:  func(c *Config) { c.Poller.MaxTier = 0 },
			wantErr: "poller.max_tier must be >= 1",
		},
		{
			name:    "negative item timeout",
			mutate:  func(c *Config) { c.Poller.ItemTimeout = -time.Second },
			wantErr: "poller.item_timeout must be >= 0",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.HTTP.Port = 70000 },
			wantErr: "http.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "metrics path without slash",
			mutate:  func(c *Config) { c.Metrics.Path = "metrics" },
			wantErr: `metrics.path must start with /, got "metrics"`,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: `log.format must be text or json, got "xml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestValidate_BadCronExpression(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = DriverMemory
	cfg.Catalog.Schedule = "every tuesday"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for bad schedule, got nil")
	}
	if !strings.HasPrefix(err.Error(), "catalog.schedule: ") {
		t.Errorf("error = %q, want catalog.schedule prefix", err.Error())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
