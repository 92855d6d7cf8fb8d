// Package config resolves runtime settings from defaults, an optional TOML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/homework/pkg/observability"
)

// DefaultStorageKey is the key the task collection is stored under.
const DefaultStorageKey = "homework-tasks"

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string `toml:"app_env"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Storage. An empty StorageURL selects SQLite at SQLitePath.
	StorageURL     string `toml:"storage_url"`
	SQLitePath     string `toml:"sqlite_path"`
	StorageKey     string `toml:"storage_key"`
	SeedSampleData bool   `toml:"seed_sample_data"`

	// Circuit breaker around remote storage
	BreakerFailures int           `toml:"breaker_failures"`
	BreakerTimeout  time.Duration `toml:"breaker_timeout"`

	// RabbitMQ. Empty disables broker fan-out.
	RabbitMQURL string `toml:"rabbitmq_url"`

	// MCP
	MCPAddr      string `toml:"mcp_addr"`
	MCPAuthToken string `toml:"mcp_auth_token"`

	// Worker
	WorkerQueue      string `toml:"worker_queue"`
	WorkerHealthAddr string `toml:"worker_health_addr"`

	// File is the TOML file that was read, if any.
	File string `toml:"-"`

	logLevelSet bool
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		AppEnv:          "development",
		LogLevel:        "warn",
		LogFormat:       "text",
		StorageKey:      DefaultStorageKey,
		SeedSampleData:  true,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
		MCPAddr:         "127.0.0.1:8082",
		WorkerQueue:     "homework.events.audit",
	}
}

// Load resolves the configuration. The TOML file is HOMEWORK_CONFIG when
// set, which must exist, or ~/.homework/config.toml when present.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg := Defaults()

	path, explicit := configPath()
	if path != "" {
		err := LoadFile(cfg, path)
		switch {
		case err == nil:
		case !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the TOML file at path onto cfg.
func LoadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.File = path
	if md.IsDefined("log_level") {
		cfg.logLevelSet = true
	}
	return nil
}

func configPath() (path string, explicit bool) {
	if p := os.Getenv("HOMEWORK_CONFIG"); p != "" {
		return p, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".homework", "config.toml"), false
}

func applyEnv(cfg *Config) error {
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	if level := os.Getenv("HOMEWORK_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
		cfg.logLevelSet = true
	}
	cfg.LogFormat = getEnv("HOMEWORK_LOG_FORMAT", cfg.LogFormat)
	cfg.StorageURL = getEnv("HOMEWORK_STORAGE_URL", cfg.StorageURL)
	cfg.SQLitePath = getEnv("HOMEWORK_SQLITE_PATH", cfg.SQLitePath)
	cfg.StorageKey = getEnv("HOMEWORK_STORAGE_KEY", cfg.StorageKey)
	cfg.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.MCPAddr = getEnv("MCP_ADDR", cfg.MCPAddr)
	cfg.MCPAuthToken = getEnv("MCP_AUTH_TOKEN", cfg.MCPAuthToken)
	cfg.WorkerQueue = getEnv("WORKER_QUEUE", cfg.WorkerQueue)
	cfg.WorkerHealthAddr = getEnv("WORKER_HEALTH_ADDR", cfg.WorkerHealthAddr)

	var err error
	if cfg.SeedSampleData, err = getBoolEnv("HOMEWORK_SEED_SAMPLE_DATA", cfg.SeedSampleData); err != nil {
		return err
	}
	if cfg.BreakerFailures, err = getIntEnv("HOMEWORK_BREAKER_FAILURES", cfg.BreakerFailures); err != nil {
		return err
	}
	if cfg.BreakerTimeout, err = getDurationEnv("HOMEWORK_BREAKER_TIMEOUT", cfg.BreakerTimeout); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the container cannot use.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.StorageKey) == "" {
		errs = append(errs, errors.New("storage key cannot be empty"))
	}
	if c.BreakerFailures < 1 {
		errs = append(errs, fmt.Errorf("breaker failures must be at least 1, got %d", c.BreakerFailures))
	}
	if c.BreakerTimeout <= 0 {
		errs = append(errs, fmt.Errorf("breaker timeout must be positive, got %s", c.BreakerTimeout))
	}
	switch observability.LogFormat(c.LogFormat) {
	case observability.LogFormatText, observability.LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LogConfig translates the logging settings for observability.NewLogger.
func (c *Config) LogConfig(version string) observability.LogConfig {
	lc := observability.DefaultLogConfig()
	if c.IsProduction() {
		lc = observability.ProductionLogConfig()
	}
	lc.Level = observability.LogLevel(c.LogLevel)
	lc.Format = observability.LogFormat(c.LogFormat)
	if version != "" {
		lc.ServiceVersion = version
	}
	return lc
}

// ServiceLogConfig is LogConfig for long-running processes. Unless a log
// level was set in the file or HOMEWORK_LOG_LEVEL, it logs at info, or at
// debug in development.
func (c *Config) ServiceLogConfig(version string) observability.LogConfig {
	lc := c.LogConfig(version)
	if c.logLevelSet {
		return lc
	}
	lc.Level = observability.LogLevelInfo
	if c.IsDevelopment() {
		lc.Level = observability.LogLevelDebug
	}
	return lc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
