package cache

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService on memcached. Site block
// markers expire server-side, so unblocking needs no cleanup pass and
// blocks survive process restarts.
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService connects to the memcached instance at serverAddr.
// The connection is lazy; a down server surfaces on first use.
func NewMemcacheService(serverAddr string) *MemcacheService {
	return &MemcacheService{
		client: memcache.New(serverAddr),
	}
}

// Get returns the block marker for key. An absent or expired marker
// yields an error, which callers read as "not blocked".
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a block marker that memcached expires after the given
// duration. Sub-second durations truncate to zero, meaning no expiry.
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
}

// Delete lifts a block before its expiry.
func (m *MemcacheService) Delete(key string) error {
	return m.client.Delete(key)
}
