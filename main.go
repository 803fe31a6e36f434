package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ofertasbr/promofeeds/config"
	"ofertasbr/promofeeds/internal/api"
	"ofertasbr/promofeeds/internal/dispatch"
	"ofertasbr/promofeeds/internal/scheduler"
	"ofertasbr/promofeeds/internal/scraper"
	"ofertasbr/promofeeds/internal/state"
	"ofertasbr/promofeeds/logger"
	"ofertasbr/promofeeds/services/cache"
	"ofertasbr/promofeeds/services/publisher"

	"github.com/joho/godotenv"
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
		Str("listen_addr", cfg.ListenAddr).
		Str("data_dir", cfg.DataDir).
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

	// Load the operator config and run statistics
	store, err := state.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open data directory")
	}
	st := state.NewState(store)

	// Wire the pipeline
	sc := scraper.New(services.Cache)

	primary := dispatch.NewWhatsAppChannel("", func() string {
		return st.Config().Distribution.APIKey
	})
	fallback := dispatch.NewTelegramChannel(func() string {
		return st.Config().Distribution.FallbackBotToken
	})
	dispatcher := dispatch.New(st, primary, fallback)

	sched := scheduler.New(st, sc, dispatcher, services.Publisher, cfg.FeedsDir, cfg.PollInterval)

	go sched.Start(ctx)

	// Start the HTTP server
	engine := api.NewServer(api.NewHandler(st, sched, cfg.FeedsDir))
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: engine,
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		serverDone <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server exited with error")
		}
		cancel()
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize cache service
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	if cacheService == nil {
		return nil, fmt.Errorf("failed to create cache service")
	}
	services.Cache = cacheService

	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Initialize publisher when stream publishing is enabled
	if cfg.RedisPublishEnabled {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if redisPublisher == nil {
			return nil, fmt.Errorf("failed to create redis publisher")
		}
		services.Publisher = redisPublisher

		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services, nil
}
