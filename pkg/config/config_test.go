package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/homework/pkg/observability"
)

var envVars = []string{
	"APP_ENV", "HOMEWORK_LOG_LEVEL", "HOMEWORK_LOG_FORMAT",
	"HOMEWORK_STORAGE_URL", "HOMEWORK_SQLITE_PATH", "HOMEWORK_STORAGE_KEY",
	"HOMEWORK_SEED_SAMPLE_DATA", "HOMEWORK_BREAKER_FAILURES", "HOMEWORK_BREAKER_TIMEOUT",
	"RABBITMQ_URL", "MCP_ADDR", "MCP_AUTH_TOKEN",
}

// isolate clears every setting and points HOME and the working directory
// at an empty temp dir so no real config or .env leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, v := range append(envVars, "HOMEWORK_CONFIG") {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.StorageURL)
	assert.Equal(t, DefaultStorageKey, cfg.StorageKey)
	assert.True(t, cfg.SeedSampleData)
	assert.Equal(t, 5, cfg.BreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.BreakerTimeout)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Equal(t, "127.0.0.1:8082", cfg.MCPAddr)
	assert.Empty(t, cfg.File)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Layers(t *testing.T) {
	dir := isolate(t)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".homework"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".homework", "config.toml"), []byte(`
storage_url = "redis://localhost:6379/0"
storage_key = "from-toml"
seed_sample_data = false
breaker_timeout = "10s"
log_format = "json"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HOMEWORK_STORAGE_KEY=from-dotenv\n"), 0o644))
	t.Setenv("HOMEWORK_BREAKER_FAILURES", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379/0", cfg.StorageURL)
	assert.Equal(t, "from-dotenv", cfg.StorageKey)
	assert.False(t, cfg.SeedSampleData)
	assert.Equal(t, 10*time.Second, cfg.BreakerTimeout)
	assert.Equal(t, 2, cfg.BreakerFailures)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, filepath.Join(dir, ".homework", "config.toml"), cfg.File)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	dir := isolate(t)
	t.Setenv("HOMEWORK_CONFIG", filepath.Join(dir, "missing.toml"))

	_, err := Load()
	assert.ErrorContains(t, err, "missing.toml")
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bool", "HOMEWORK_SEED_SAMPLE_DATA", "maybe"},
		{"int", "HOMEWORK_BREAKER_FAILURES", "many"},
		{"duration", "HOMEWORK_BREAKER_TIMEOUT", "soon"},
		{"zero failures", "HOMEWORK_BREAKER_FAILURES", "0"},
		{"log format", "HOMEWORK_LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLogConfig(t *testing.T) {
	cfg := Defaults()
	cfg.AppEnv = "production"
	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"

	lc := cfg.LogConfig("1.0.0")

	assert.Equal(t, observability.LogLevelDebug, lc.Level)
	assert.Equal(t, observability.LogFormatJSON, lc.Format)
	assert.Equal(t, "homework", lc.ServiceName)
	assert.Equal(t, "1.0.0", lc.ServiceVersion)
	assert.True(t, lc.AddSource)
}

func TestServiceLogConfig(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		file  string
		level observability.LogLevel
	}{
		{name: "development default", level: observability.LogLevelDebug},
		{name: "production default", env: map[string]string{"APP_ENV": "production"}, level: observability.LogLevelInfo},
		{name: "env wins", env: map[string]string{"HOMEWORK_LOG_LEVEL": "error"}, level: observability.LogLevelError},
		{name: "explicit warn is kept", env: map[string]string{"HOMEWORK_LOG_LEVEL": "warn"}, level: observability.LogLevelWarn},
		{name: "file level", file: `log_level = "error"`, level: observability.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				path := filepath.Join(dir, "homework.toml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o600))
				t.Setenv("HOMEWORK_CONFIG", path)
			}

			cfg, err := Load()
			require.NoError(t, err)

			assert.Equal(t, tt.level, cfg.ServiceLogConfig("").Level)
		})
	}
}
