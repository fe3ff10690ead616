package cache

import (
	"time"
)

// CacheService is the shared cache used to record provider rate-limit
// blocks so every crawl in the process honors them.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
