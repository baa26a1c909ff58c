package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Blob store backends
const (
	BackendHTTP   = "http"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// DefaultBlobStoreURL is the public jsonblob endpoint the original game used
const DefaultBlobStoreURL = "https://jsonblob.com/api/jsonBlob"

// Config holds all configuration for the application
type Config struct {
	// Remote blob store
	BlobBackend  string
	BlobStoreURL string
	HTTPTimeout  time.Duration
	// BlobMaxAge expires idle documents on backends that support it
	BlobMaxAge time.Duration

	// Synchronization and pacing
	PollInterval     time.Duration
	SpinDelay        time.Duration
	AIDelay          time.Duration
	MaxPollFailures  int
	StrictVersioning bool

	// Game history
	HistoryBackend         string
	DataDir                string
	ElasticsearchURL       string
	ElasticsearchUsername  string
	ElasticsearchPassword  string
	ElasticsearchIndexBase string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Blob server
	ListenAddr string

	// Environment
	LogLevel    string
	Environment string // "development" or "production"
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	return FromEnv()
}

// FromEnv builds a Config from the current process environment without
// touching .env files
func FromEnv() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg := &Config{
		BlobBackend:            strings.ToLower(getEnvWithDefault("BLOB_BACKEND", BackendHTTP)),
		BlobStoreURL:           getEnvWithDefault("BLOB_STORE_URL", DefaultBlobStoreURL),
		HistoryBackend:         strings.ToLower(getEnvWithDefault("HISTORY_BACKEND", BackendMemory)),
		DataDir:                getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data")),
		ElasticsearchURL:       os.Getenv("ELASTICSEARCH_URL"),
		ElasticsearchUsername:  os.Getenv("ELASTICSEARCH_USERNAME"),
		ElasticsearchPassword:  os.Getenv("ELASTICSEARCH_PASSWORD"),
		ElasticsearchIndexBase: getEnvWithDefault("ELASTICSEARCH_INDEX_PREFIX", "reverseroulette"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		ListenAddr:             getEnvWithDefault("LISTEN_ADDR", ":8080"),
		LogLevel:               getEnvWithDefault("LOG_LEVEL", "info"),
		Environment:            getEnvWithDefault("ENVIRONMENT", "development"),
	}

	durations := []struct {
		key    string
		def    time.Duration
		target *time.Duration
	}{
		{"POLL_INTERVAL", 2 * time.Second, &cfg.PollInterval},
		{"SPIN_DELAY", 2500 * time.Millisecond, &cfg.SpinDelay},
		{"AI_DELAY", time.Second, &cfg.AIDelay},
		{"HTTP_TIMEOUT", 10 * time.Second, &cfg.HTTPTimeout},
		{"BLOB_MAX_AGE", 24 * time.Hour, &cfg.BlobMaxAge},
	}
	for _, d := range durations {
		v, err := getDurationWithDefault(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.target = v
	}

	if cfg.MaxPollFailures, err = getIntWithDefault("MAX_POLL_FAILURES", 5); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getIntWithDefault("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.StrictVersioning, err = getBoolWithDefault("STRICT_VERSIONING", false); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks if all required configuration is present and consistent
func (c *Config) validate() error {
	switch c.BlobBackend {
	case BackendHTTP:
		if c.BlobStoreURL == "" {
			return fmt.Errorf("BLOB_STORE_URL is required for the http backend")
		}
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}

	switch c.HistoryBackend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown HISTORY_BACKEND %q", c.HistoryBackend)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.SpinDelay < 0 || c.AIDelay < 0 {
		return fmt.Errorf("SPIN_DELAY and AI_DELAY cannot be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.BlobMaxAge < 0 {
		return fmt.Errorf("BLOB_MAX_AGE cannot be negative")
	}
	if c.MaxPollFailures < 1 {
		return fmt.Errorf("MAX_POLL_FAILURES must be at least 1")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// HistoryDBPath is where the sqlite history database lives
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// BlobDBPath is where the sqlite blob backend keeps documents
func (c *Config) BlobDBPath() string {
	return filepath.Join(c.DataDir, "blobs.db")
}

// BlobFilePath is where the file blob backend keeps documents
func (c *Config) BlobFilePath() string {
	return filepath.Join(c.DataDir, "blobs.json")
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		// bare integers are milliseconds
		ms, convErr := strconv.Atoi(value)
		if convErr != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		d = time.Duration(ms) * time.Millisecond
	}
	return d, nil
}

func getIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getBoolWithDefault(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}
