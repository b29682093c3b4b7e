// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// A .env file next to the binary is loaded into the environment by cmd/wfmtracker
// before the YAML is expanded.
package config
