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
	assert.Equal(t, "sqlite3", config.DatabaseDriver)
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, 0, config.RedisDB)
	assert.Equal(t, "news_items", config.RedisStream)
	assert.Equal(t, "localhost:11211", config.MemcacheAddr)
	assert.Equal(t, "ko", config.SearchLang)
	assert.Equal(t, "kr", config.SearchCountry)
	assert.Equal(t, 10, config.SearchPageSize)
	assert.Equal(t, 15*time.Second, config.SearchTimeout)
	assert.Equal(t, 3, config.SearchRetries)
	assert.Equal(t, "0 5 * * *", config.CrawlSchedule)
	assert.Equal(t, 7, config.CrawlDaysBack)

	// Test with environment variables
	os.Setenv("DATABASE_DRIVER", "postgres")
	os.Setenv("DATABASE_DSN", "host=db.example.com user=news dbname=news sslmode=disable")
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("SEARCH_LANG", "en")
	os.Setenv("SEARCH_COUNTRY", "us")
	os.Setenv("SEARCH_PAGE_SIZE", "20")
	os.Setenv("CRAWL_SCHEDULE", "30 4 * * *")

	config = LoadConfig()
	assert.Equal(t, "postgres", config.DatabaseDriver)
	assert.Equal(t, "host=db.example.com user=news dbname=news sslmode=disable", config.DatabaseDSN)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, "en", config.SearchLang)
	assert.Equal(t, "us", config.SearchCountry)
	assert.Equal(t, 20, config.SearchPageSize)
	assert.Equal(t, "30 4 * * *", config.CrawlSchedule)

	// Clean up
	os.Unsetenv("DATABASE_DRIVER")
	os.Unsetenv("DATABASE_DSN")
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("SEARCH_LANG")
	os.Unsetenv("SEARCH_COUNTRY")
	os.Unsetenv("SEARCH_PAGE_SIZE")
	os.Unsetenv("CRAWL_SCHEDULE")
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	assert.NoError(t, config.Validate())

	bad := config
	bad.DatabaseDriver = "oracle"
	assert.Error(t, bad.Validate())

	bad = config
	bad.SearchPageSize = 0
	assert.Error(t, bad.Validate())

	bad = config
	bad.SearchRetries = 0
	assert.Error(t, bad.Validate())
}
