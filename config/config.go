// Package config loads periodic's runtime configuration from an optional
// YAML file and PERIODIC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full runtime configuration.
type Config struct {
	Listen   string         `yaml:"listen"`
	Backend  string         `yaml:"backend"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
	CORS     CORSConfig     `yaml:"cors"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DynamoDBConfig configures the DynamoDB backend. Indexes maps a filter
// field to the name of a global secondary index keyed on it.
type DynamoDBConfig struct {
	Table           string            `yaml:"table"`
	Region          string            `yaml:"region,omitempty"`
	Endpoint        string            `yaml:"endpoint,omitempty"`
	ScanSegments    int               `yaml:"scan_segments,omitempty"`
	Indexes         map[string]string `yaml:"indexes,omitempty"`
	AccessKeyID     string            `yaml:"access_key_id,omitempty"`
	SecretAccessKey string            `yaml:"secret_access_key,omitempty"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig configures the Postgres backend.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// CORSConfig lists the origins allowed to call the HTTP API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig selects the log level and handler format ("text" or "json").
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Listen:  ":8000",
		Backend: BackendMemory,
		DynamoDB: DynamoDBConfig{
			Table:        "elements",
			ScanSegments: 1,
		},
		SQLite: SQLiteConfig{Path: "periodic.db"},
		CORS:   CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (if non-empty), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(k string, dst *string) {
		if v := getenv(k); v != "" {
			*dst = v
		}
	}
	str("PERIODIC_LISTEN", &c.Listen)
	str("PERIODIC_BACKEND", &c.Backend)
	str("PERIODIC_DYNAMODB_TABLE", &c.DynamoDB.Table)
	str("PERIODIC_DYNAMODB_REGION", &c.DynamoDB.Region)
	str("PERIODIC_DYNAMODB_ENDPOINT", &c.DynamoDB.Endpoint)
	str("PERIODIC_DYNAMODB_ACCESS_KEY_ID", &c.DynamoDB.AccessKeyID)
	str("PERIODIC_DYNAMODB_SECRET_ACCESS_KEY", &c.DynamoDB.SecretAccessKey)
	str("PERIODIC_SQLITE_PATH", &c.SQLite.Path)
	str("PERIODIC_POSTGRES_DSN", &c.Postgres.DSN)
	str("PERIODIC_LOG_LEVEL", &c.Log.Level)
	str("PERIODIC_LOG_FORMAT", &c.Log.Format)

	if v := getenv("PERIODIC_DYNAMODB_SCAN_SEGMENTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PERIODIC_DYNAMODB_SCAN_SEGMENTS: %v", ErrInvalid, err)
		}
		c.DynamoDB.ScanSegments = n
	}
	if v := getenv("PERIODIC_METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: PERIODIC_METRICS_ENABLED: %v", ErrInvalid, err)
		}
		c.Metrics.Enabled = b
	}
	if v := getenv("PERIODIC_CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}
	return nil
}

// Validate fills defaults for unset values and rejects inconsistent ones.
func (c *Config) Validate() error {
	if c.Listen == "" {
		c.Listen = ":8000"
	}
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	switch c.Backend {
	case BackendMemory:
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return fmt.Errorf("%w: dynamodb.table is required", ErrInvalid)
		}
		if (c.DynamoDB.AccessKeyID == "") != (c.DynamoDB.SecretAccessKey == "") {
			return fmt.Errorf("%w: dynamodb access_key_id and secret_access_key must be set together", ErrInvalid)
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("%w: sqlite.path is required", ErrInvalid)
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("%w: postgres.dsn is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, c.Backend)
	}

	if _, err := c.Log.level(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return lvl, nil
}

// NewLogger builds a logger writing to w in the configured format.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
