package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/zankke/first-ent/config"
	"github.com/zankke/first-ent/internal/api"
	"github.com/zankke/first-ent/internal/enrich"
	"github.com/zankke/first-ent/internal/news"
	"github.com/zankke/first-ent/internal/search"
	"github.com/zankke/first-ent/logger"
	"github.com/zankke/first-ent/services/cache"
	"github.com/zankke/first-ent/services/crawler"
	"github.com/zankke/first-ent/services/publisher"
	"github.com/zankke/first-ent/services/scheduler"
	"github.com/zankke/first-ent/services/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("schedule", cfg.CrawlSchedule).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// Assemble the crawl pipeline
	searcher := search.NewSerpAPIClient(search.Options{
		BaseURL:   cfg.SerpAPIBaseURL,
		APIKey:    cfg.SerpAPIKey,
		Lang:      cfg.SearchLang,
		Country:   cfg.SearchCountry,
		PageSize:  cfg.SearchPageSize,
		Timeout:   cfg.SearchTimeout,
		Retries:   cfg.SearchRetries,
		Backoff:   cfg.SearchBackoff,
		BlockTime: cfg.RateLimitBlock,
	}, services.Store, services.Cache)

	var enricher crawler.Enricher
	if cfg.EnrichThumbnails {
		enricher = enrich.New()
	}

	orchestrator := crawler.NewOrchestrator(
		searcher,
		search.NewParser(news.NewNormalizer()),
		services.Store,
		services.Publisher,
		enricher,
	)

	// Scheduler for the daily crawl
	sched := scheduler.New(cfg.CrawlSchedule, orchestrator.RunForAllActive)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer sched.Stop()

	// HTTP trigger surface
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(orchestrator, sched)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting HTTP server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-serverDone:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server exited with error")
		} else {
			log.Info().Msg("HTTP server exited normally")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
}

// Services holds all the initialized services
type Services struct {
	Store     *store.SQLStore
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize persistence store
	sqlStore, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := sqlStore.EnsureSchema(ctx); err != nil {
		sqlStore.Close()
		return nil, err
	}
	services.Store = sqlStore

	logger.Info("Connected to %s database", cfg.DatabaseDriver)

	// Initialize cache service for provider rate-limit blocks
	services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)

	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Initialize publisher for downstream sentiment tagging
	services.Publisher = publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		10_000,
	)

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	return services, nil
}
