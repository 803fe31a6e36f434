package cache

import (
	"time"
)

// CacheService is the backing store for per-site fetch rate limiting.
// A key is present while the site is blocked from further requests.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
