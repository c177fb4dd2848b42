// Package config provides application-wide configuration loaded from env vars.
// All fields have safe defaults so the binary runs locally against an already
// authenticated bq session without any env setup. An optional YAML file can
// override individual values (env vars win over the file).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the bqmcp server.
type Config struct {
	// bq client invocation
	BQPath         string        // BQ_PATH — path to the bq binary, default: "bq"
	BQWorkDir      string        // BQ_WORKDIR — working directory for bq, default: inherit
	CommandTimeout time.Duration // BQ_COMMAND_TIMEOUT — seconds, default: 300

	// Query safety gate
	TokenTTL time.Duration // BQ_TOKEN_TTL — confirmation token lifetime in seconds, default: 60

	// Transport
	Transport string // BQMCP_TRANSPORT — "stdio" or "http", default: "stdio"
	HTTPHost  string // BQMCP_HTTP_HOST — default: "0.0.0.0"
	HTTPPort  int    // BQMCP_HTTP_PORT — default: 8080
}

const (
	envKeyBQPath         = "BQ_PATH"
	envKeyBQWorkDir      = "BQ_WORKDIR"
	envKeyCommandTimeout = "BQ_COMMAND_TIMEOUT"
	envKeyTokenTTL       = "BQ_TOKEN_TTL"
	envKeyTransport      = "BQMCP_TRANSPORT"
	envKeyHTTPHost       = "BQMCP_HTTP_HOST"
	envKeyHTTPPort       = "BQMCP_HTTP_PORT"
)

const (
	// TransportStdio serves the protocol over stdin/stdout.
	TransportStdio = "stdio"
	// TransportHTTP serves the protocol over a streamable HTTP endpoint.
	TransportHTTP = "http"
)

// fileConfig mirrors Config for YAML decoding. Pointer fields distinguish
// "absent" from "zero" so the file only overrides what it sets.
type fileConfig struct {
	BQPath         *string `yaml:"bq_path"`
	BQWorkDir      *string `yaml:"bq_workdir"`
	CommandTimeout *int    `yaml:"command_timeout_seconds"`
	TokenTTL       *int    `yaml:"token_ttl_seconds"`
	Transport      *string `yaml:"transport"`
	HTTPHost       *string `yaml:"http_host"`
	HTTPPort       *int    `yaml:"http_port"`
}

// Load reads configuration from environment variables, applying defaults for
// missing values.
func Load() Config {
	return Config{
		BQPath:         envOr(envKeyBQPath, "bq"),
		BQWorkDir:      envOr(envKeyBQWorkDir, ""),
		CommandTimeout: time.Duration(envIntOr(envKeyCommandTimeout, 300)) * time.Second,
		TokenTTL:       time.Duration(envIntOr(envKeyTokenTTL, 60)) * time.Second,
		Transport:      envOr(envKeyTransport, TransportStdio),
		HTTPHost:       envOr(envKeyHTTPHost, "0.0.0.0"),
		HTTPPort:       envIntOr(envKeyHTTPPort, 8080),
	}
}

// LoadFile loads configuration with values from a YAML file layered between
// the defaults and the environment: file overrides defaults, env overrides
// the file.
func LoadFile(path string) (Config, error) {
	cfg := Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	applyFileValue(&cfg.BQPath, fc.BQPath, envKeyBQPath)
	applyFileValue(&cfg.BQWorkDir, fc.BQWorkDir, envKeyBQWorkDir)
	applyFileValue(&cfg.Transport, fc.Transport, envKeyTransport)
	applyFileValue(&cfg.HTTPHost, fc.HTTPHost, envKeyHTTPHost)
	if fc.CommandTimeout != nil && os.Getenv(envKeyCommandTimeout) == "" {
		cfg.CommandTimeout = time.Duration(*fc.CommandTimeout) * time.Second
	}
	if fc.TokenTTL != nil && os.Getenv(envKeyTokenTTL) == "" {
		cfg.TokenTTL = time.Duration(*fc.TokenTTL) * time.Second
	}
	if fc.HTTPPort != nil && os.Getenv(envKeyHTTPPort) == "" {
		cfg.HTTPPort = *fc.HTTPPort
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Transport != TransportStdio && c.Transport != TransportHTTP {
		return fmt.Errorf("transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Transport)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command timeout must be positive, got %s", c.CommandTimeout)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// applyFileValue sets dst from the file value unless the env var is set.
func applyFileValue(dst *string, fileVal *string, envKey string) {
	if fileVal != nil && os.Getenv(envKey) == "" {
		*dst = *fileVal
	}
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envIntOr returns the integer value of the environment variable key, or
// fallback if not set or not a valid number.
func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
