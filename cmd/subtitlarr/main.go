package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/subtitlarr/subtitlarr/internal/api"
	"github.com/subtitlarr/subtitlarr/internal/cache"
	"github.com/subtitlarr/subtitlarr/internal/catalog"
	"github.com/subtitlarr/subtitlarr/internal/client"
	"github.com/subtitlarr/subtitlarr/internal/config"
	"github.com/subtitlarr/subtitlarr/internal/metrics"
	"github.com/subtitlarr/subtitlarr/internal/search"
)

func main() {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	logger.Info().
		Str("search_url", cfg.SearchURL).
		Str("catalog_url", cfg.Catalog.URL).
		Str("cache_provider", cfg.Cache.Provider).
		Str("server_address", cfg.Server.Address).
		Int("server_port", cfg.Server.Port).
		Msg("Application started with configuration")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Sentry")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// One shared result cache; search results and catalog lookups live in
	// disjoint key spaces with their own TTLs.
	resultCache := newResultCache(cfg, logger)
	defer func() {
		if err := resultCache.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close result cache")
		}
	}()

	upstream := client.NewClient(cfg)
	defer func() {
		if err := upstream.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close upstream client")
		}
	}()

	catalogClient := catalog.NewClient(cfg)
	resolver := catalog.NewResolver(catalogClient, resultCache, cfg.CatalogTTL())
	coordinator := search.NewCoordinator(upstream, resultCache, cfg.SearchTTL())

	server := api.NewServer(&api.Dependencies{
		Config:      cfg,
		Resolver:    resolver,
		Coordinator: coordinator,
		Downloader:  upstream,
	})

	// Start Prometheus metrics HTTP server
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown API server")
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Failed to serve API")
	}

	logger.Info().Msg("Server stopped gracefully")
}

func newResultCache(cfg *config.Config, logger zerolog.Logger) cache.Cache {
	resultCache, err := cache.New(cfg.Cache.Provider, cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		Namespace:     "subtitlarr",
		Group:         "results",
		Logger:        &cacheLogger{logger: logger},
		RedisAddress:  cfg.Cache.Redis.Address,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.Cache.Provider).Msg("Failed to create result cache")
	}
	return resultCache
}

// cacheLogger adapts zerolog to the cache.Logger interface.
type cacheLogger struct {
	logger zerolog.Logger
}

func (l *cacheLogger) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}
