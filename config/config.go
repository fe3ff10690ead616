package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Database configuration
	DatabaseDriver string
	DatabaseDSN    string

	// Redis configuration
	RedisAddr   string
	RedisDB     int
	RedisStream string

	// Memcache configuration
	MemcacheAddr string

	// Search provider configuration
	SerpAPIKey     string
	SerpAPIBaseURL string
	SearchLang     string
	SearchCountry  string
	SearchPageSize int
	SearchTimeout  time.Duration
	SearchRetries  int
	SearchBackoff  time.Duration

	// Crawl configuration
	CrawlSchedule    string
	CrawlDaysBack    int
	EnrichThumbnails bool
	RateLimitBlock   time.Duration

	// HTTP API configuration
	HTTPAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	pageSize, _ := strconv.Atoi(getEnv("SEARCH_PAGE_SIZE", "10"))
	timeout, _ := strconv.Atoi(getEnv("SEARCH_TIMEOUT_SECONDS", "15"))
	retries, _ := strconv.Atoi(getEnv("SEARCH_MAX_RETRIES", "3"))
	backoff, _ := strconv.Atoi(getEnv("SEARCH_BACKOFF_SECONDS", "2"))
	daysBack, _ := strconv.Atoi(getEnv("CRAWL_DAYS_BACK", "7"))
	blockSecs, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "300"))
	enrich, _ := strconv.ParseBool(getEnv("ENRICH_THUMBNAILS", "false"))

	return Config{
		DatabaseDriver:   getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabaseDSN:      getEnv("DATABASE_DSN", "file:newsoffice.db?_fk=1"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:          redisDB,
		RedisStream:      getEnv("REDIS_STREAM", "news_items"),
		MemcacheAddr:     getEnv("MEMCACHE_ADDR", "localhost:11211"),
		SerpAPIKey:       getEnv("SERPAPI_API_KEY", ""),
		SerpAPIBaseURL:   getEnv("SERPAPI_BASE_URL", "https://serpapi.com/search.json"),
		SearchLang:       getEnv("SEARCH_LANG", "ko"),
		SearchCountry:    getEnv("SEARCH_COUNTRY", "kr"),
		SearchPageSize:   pageSize,
		SearchTimeout:    time.Duration(timeout) * time.Second,
		SearchRetries:    retries,
		SearchBackoff:    time.Duration(backoff) * time.Second,
		CrawlSchedule:    getEnv("CRAWL_SCHEDULE", "0 5 * * *"),
		CrawlDaysBack:    daysBack,
		EnrichThumbnails: enrich,
		RateLimitBlock:   time.Duration(blockSecs) * time.Second,
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		Environment:      getEnv("NEWSOFFICE_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if c.DatabaseDriver != "sqlite3" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN must not be empty")
	}
	if c.SearchPageSize <= 0 || c.SearchPageSize > 100 {
		return fmt.Errorf("search page size out of range: %d", c.SearchPageSize)
	}
	if c.SearchRetries <= 0 {
		return fmt.Errorf("search retries must be positive: %d", c.SearchRetries)
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("search timeout must be positive: %s", c.SearchTimeout)
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
