package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, ":8080", config.ListenAddr)
	assert.Equal(t, "data", config.DataDir)
	assert.Equal(t, "feeds", config.FeedsDir)
	assert.Equal(t, "localhost:11211", config.MemcacheAddr)
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, 0, config.RedisDB)
	assert.Equal(t, 1, config.RedisStreamCount)
	assert.Equal(t, 60*time.Second, config.PollInterval)
	assert.False(t, config.RedisPublishEnabled)

	// Test with environment variables
	os.Setenv("LISTEN_ADDR", ":9090")
	os.Setenv("DATA_DIR", "/var/lib/promofeeds")
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("REDIS_DB", "1")
	os.Setenv("REDIS_PUBLISH_ENABLED", "true")
	os.Setenv("POLL_INTERVAL_SECONDS", "30")

	config = LoadConfig()
	assert.Equal(t, ":9090", config.ListenAddr)
	assert.Equal(t, "/var/lib/promofeeds", config.DataDir)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.True(t, config.RedisPublishEnabled)
	assert.Equal(t, 30*time.Second, config.PollInterval)

	// Clean up
	os.Unsetenv("LISTEN_ADDR")
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("REDIS_DB")
	os.Unsetenv("REDIS_PUBLISH_ENABLED")
	os.Unsetenv("POLL_INTERVAL_SECONDS")
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	assert.NoError(t, config.Validate())

	config.PollInterval = 100 * time.Millisecond
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.FeedsDir = ""
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.RedisPublishEnabled = true
	config.RedisStreamCount = 0
	assert.Error(t, config.Validate())
}
