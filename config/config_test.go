package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "periodic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Listen)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "elements", cfg.DynamoDB.Table)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
listen: ":9000"
backend: dynamodb
dynamodb:
  table: periodic-prod
  region: eu-west-1
  scan_segments: 8
  indexes:
    name: name-index
    period: period-index
cors:
  allowed_origins: ["https://periodic.example"]
log:
  level: debug
  format: json
metrics:
  enabled: true
`)
	cfg, err := load(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, BackendDynamoDB, cfg.Backend)
	assert.Equal(t, "periodic-prod", cfg.DynamoDB.Table)
	assert.Equal(t, 8, cfg.DynamoDB.ScanSegments)
	assert.Equal(t, "period-index", cfg.DynamoDB.Indexes["period"])
	assert.Equal(t, []string{"https://periodic.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "backend: sqlite\nsqlite:\n  path: /tmp/a.db\n")
	cfg, err := load(path, env(map[string]string{
		"PERIODIC_SQLITE_PATH":          "/var/lib/periodic.db",
		"PERIODIC_LISTEN":               ":7000",
		"PERIODIC_CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example,",
		"PERIODIC_METRICS_ENABLED":      "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/periodic.db", cfg.SQLite.Path)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"unknown backend", map[string]string{"PERIODIC_BACKEND": "mongodb"}},
		{"postgres without dsn", map[string]string{"PERIODIC_BACKEND": "postgres"}},
		{"bad segments", map[string]string{"PERIODIC_DYNAMODB_SCAN_SEGMENTS": "many"}},
		{"bad bool", map[string]string{"PERIODIC_METRICS_ENABLED": "sometimes"}},
		{"bad level", map[string]string{"PERIODIC_LOG_LEVEL": "loud"}},
		{"bad format", map[string]string{"PERIODIC_LOG_FORMAT": "xml"}},
		{"half credentials", map[string]string{"PERIODIC_BACKEND": "dynamodb", "PERIODIC_DYNAMODB_ACCESS_KEY_ID": "AKIA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load("", env(tt.vars))
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "absent.yaml"), env(nil))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := load(writeFile(t, "listen: [unclosed"), env(nil))
	assert.Error(t, err)
}

func TestValidate_FillsBlanks(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8000", cfg.Listen)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "elementID", "abc")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"elementID":"abc"`)
}
