package cache

import (
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
)

// Requires a running memcached instance; skipped otherwise.
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")

	_, err := mc.client.Get("probe")
	if err != nil && err != memcache.ErrCacheMiss {
		t.Skip("Memcached is not available, skipping test")
	}

	// Record a provider block the way the search adapter does
	err = mc.Set("serpapi_rate_limit", []byte("blocked"), 1*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get("serpapi_rate_limit")
	assert.NoError(t, err)
	assert.Equal(t, "blocked", string(value))

	err = mc.Delete("serpapi_rate_limit")
	assert.NoError(t, err)

	_, err = mc.Get("serpapi_rate_limit")
	assert.Error(t, err)
}
