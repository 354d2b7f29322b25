package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/karseba/comprelay/internal/config"
	"github.com/karseba/comprelay/internal/logging"
	"github.com/karseba/comprelay/internal/metrics"
	"github.com/karseba/comprelay/internal/platform"
	"github.com/karseba/comprelay/internal/relay"
	"github.com/karseba/comprelay/internal/relay/cache"
	"github.com/karseba/comprelay/internal/server"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		configFile = flag.String("config", "", "path to relay configuration file")
		envPrefix  = flag.String("env-prefix", "COMPRELAY", "environment variable prefix")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(*envPrefix, *configFile)
	cfg, err := loader.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Logging)
	if err != nil {
		log.Fatalf("failed to configure logger: %v", err)
	}

	cacheLogger := logger.With(slog.String("agent", "cache_factory"))
	resultCache := buildResultCache(cacheLogger, cfg.Server.Cache)

	promRegistry := prometheus.NewRegistry()
	metricsRecorder := metrics.NewRecorder(promRegistry)

	httpClient := platform.NewHTTPClient(cfg.Upstream.Timeout())
	issuer := platform.NewTokenIssuer(cfg.Upstream.PlatformBaseURL, httpClient, logger)
	spaces := platform.NewSpaceLister(cfg.Upstream.PlatformBaseURL, httpClient)
	aggregator := relay.NewAggregator(issuer, cfg.Upstream.QueryBaseURL, httpClient, logger, metricsRecorder)

	pipe := relay.NewPipeline(logger, relay.PipelineOptions{
		Cache:             resultCache,
		CacheTTL:          cfg.Server.Cache.TTL(),
		Spaces:            spaces,
		Aggregator:        aggregator,
		CorrelationHeader: cfg.Server.Logging.CorrelationHeader,
		Metrics:           metricsRecorder,
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := pipe.Close(shutdownCtx); err != nil {
			logger.Error("cache shutdown failed", slog.Any("error", err))
		}
	}()

	handler := server.NewPipelineHandler(pipe)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsRecorder.Handler())
	mux.Handle("/", handler)

	srv, err := server.New(cfg, logger, mux)
	if err != nil {
		logger.Error("unable to construct server", slog.Any("error", err))
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated unexpectedly", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

func buildResultCache(logger *slog.Logger, cfg config.ServerCacheConfig) cache.ResultCache {
	ttl := cfg.TTL()
	backend := strings.TrimSpace(strings.ToLower(cfg.Backend))
	switch backend {
	case "", "memory":
		if logger != nil {
			logger.Info("using memory result cache", slog.Duration("ttl", ttl), slog.Duration("sweep_interval", cfg.SweepInterval()))
		}
		return cache.NewMemory(ttl, cfg.SweepInterval())
	case "redis":
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS: cache.RedisTLSConfig{
				Enabled: cfg.Redis.TLS.Enabled,
				CAFile:  cfg.Redis.TLS.CAFile,
			},
		}, ttl)
		if err != nil {
			if logger != nil {
				logger.Error("redis cache initialization failed", slog.Any("error", err))
				logger.Info("falling back to memory cache")
			}
			return cache.NewMemory(ttl, cfg.SweepInterval())
		}
		if logger != nil {
			logger.Info("using redis result cache", slog.String("address", cfg.Redis.Address))
		}
		return redisCache
	default:
		if logger != nil {
			logger.Warn("unsupported cache backend, defaulting to memory", slog.String("backend", cfg.Backend))
		}
		return cache.NewMemory(ttl, cfg.SweepInterval())
	}
}
