package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geosuggest/internal/config"
	dbRedis "github.com/kailas-cloud/geosuggest/internal/db/redis"
	"github.com/kailas-cloud/geosuggest/internal/domain"
	logpkg "github.com/kailas-cloud/geosuggest/internal/logger"
	"github.com/kailas-cloud/geosuggest/internal/metrics"
	"github.com/kailas-cloud/geosuggest/internal/repository/searchcache"
	chiTransport "github.com/kailas-cloud/geosuggest/internal/transport/chi"
	"github.com/kailas-cloud/geosuggest/internal/transport/wiki"
	healthuc "github.com/kailas-cloud/geosuggest/internal/usecase/health"
	sessionuc "github.com/kailas-cloud/geosuggest/internal/usecase/session"
	"github.com/kailas-cloud/geosuggest/internal/usecase/suggest"
	"github.com/kailas-cloud/geosuggest/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()
	defer zap.ReplaceGlobals(logger)()

	site := cfg.Site()
	logger.Info("Starting geosuggest API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("site", site.String()),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Register suggestion metrics explicitly (no init())
	metrics.RegisterSuggestMetrics()

	userAgent := cfg.Wiki.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent(logpkg.ServiceName, cfg.Wiki.Contact)
	}
	wikiClient := wiki.NewClient(&wiki.Config{
		Endpoint:   cfg.Wiki.Endpoint,
		UserAgent:  userAgent,
		Timeout:    time.Duration(cfg.Wiki.TimeoutSec) * time.Second,
		HealthSite: site,
		Logger:     logger,
	})

	// Search ports, optionally behind the response cache
	var (
		term     domain.TermSearcher     = wikiClient
		location domain.LocationSearcher = wikiClient
		cache    healthuc.CachePinger
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))

		opts := searchcache.Options{
			KeyPrefix:  cfg.Cache.KeyPrefix,
			TTL:        time.Duration(cfg.Cache.TTLSec) * time.Second,
			CacheTotal: metrics.SearchCacheTotal,
			Logger:     logger,
		}
		term = searchcache.NewTermCache(wikiClient, store, opts)
		location = searchcache.NewLocationCache(wikiClient, store, opts)
		cache = store
	}

	// One aggregator per typing session
	sessions := sessionuc.NewRegistry(func() *suggest.Service {
		return suggest.New(term, location, site, logger).WithResultLimit(cfg.Wiki.ResultLimit)
	}, sessionuc.Config{
		IdleTTL:     time.Duration(cfg.Sessions.IdleTTLSec) * time.Second,
		MaxSessions: cfg.Sessions.MaxSessions,
	}, logger)
	go sessions.Run(ctx, 0)

	healthSvc := healthuc.New(cache, wikiClient)

	server := chiTransport.NewServer(sessions, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	stop()

	logger.Info("Server stopped gracefully")
}
