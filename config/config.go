package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the process-level configuration loaded from the
// environment. Operator-editable settings (sites, distribution, update
// cadence) live in the config document managed by internal/state.
type Config struct {
	// HTTP server
	ListenAddr string

	// Storage directories
	DataDir  string
	FeedsDir string

	// Scheduler
	PollInterval time.Duration

	// Memcache configuration (per-site fetch rate limiting)
	MemcacheAddr string

	// Redis configuration (ranked product stream)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int
	RedisPublishEnabled  bool

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	pollSeconds, _ := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "60"))

	return Config{
		ListenAddr:           getEnv("LISTEN_ADDR", ":8080"),
		DataDir:              getEnv("DATA_DIR", "data"),
		FeedsDir:             getEnv("FEEDS_DIR", "feeds"),
		PollInterval:         time.Duration(pollSeconds) * time.Second,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "products"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		RedisPublishEnabled:  getEnv("REDIS_PUBLISH_ENABLED", "false") == "true",
		Environment:          getEnv("PROMOFEEDS_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll interval too short: %s", c.PollInterval)
	}
	if c.DataDir == "" || c.FeedsDir == "" {
		return fmt.Errorf("data and feeds directories must be set")
	}
	if c.RedisPublishEnabled && c.RedisStreamCount < 1 {
		return fmt.Errorf("redis stream count must be at least 1")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
