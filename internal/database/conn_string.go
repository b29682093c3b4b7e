package database

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rickgao/wfm-tracker/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s",
		userInfo(cfg),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}

// MigrationURL returns the connection string in the form golang-migrate's
// pgx/v5 driver expects.
func MigrationURL(cfg config.DBConfig) string {
	return "pgx5://" + strings.TrimPrefix(BuildConnString(cfg), "postgres://")
}

func userInfo(cfg config.DBConfig) string {
	if cfg.Password == "" {
		return url.QueryEscape(cfg.User)
	}
	// URL-encode password to handle special characters
	return url.QueryEscape(cfg.User) + ":" + url.QueryEscape(cfg.Password)
}
