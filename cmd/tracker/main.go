package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-tracker/internal/cache"
	"github.com/kjstillabower/weather-tracker/internal/config"
	httphandler "github.com/kjstillabower/weather-tracker/internal/http"
	"github.com/kjstillabower/weather-tracker/internal/icon"
	"github.com/kjstillabower/weather-tracker/internal/lifecycle"
	"github.com/kjstillabower/weather-tracker/internal/observability"
	"github.com/kjstillabower/weather-tracker/internal/service"
	"github.com/kjstillabower/weather-tracker/internal/tracker"
	"github.com/kjstillabower/weather-tracker/internal/traffic"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	iconCache, cachePing, cacheCloser := newIconCache(cfg, logger)

	fetcher := icon.NewBreakerFetcher(
		icon.BreakerConfig{
			ConsecutiveFailures: cfg.IconBreakerFailures,
			OpenTimeout:         cfg.IconBreakerTimeout,
		},
		icon.NewHTTPFetcher(cfg.IconTimeout, cfg.IconRetryAttempts, cfg.IconRetryBaseDelay, cfg.IconRetryMaxDelay),
	)
	loader := icon.NewLoader(fetcher, iconCache, cfg.IconURL, cfg.IconSize, cfg.IconCacheTTL, logger)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), cfg.IconStartupTimeout)
	initialIcon := loader.Load(startupCtx)
	startupCancel()
	icons := icon.NewHolder(initialIcon)
	logger.Info("icon ready", zap.String("source", string(initialIcon.Source)))

	var refresher *icon.Refresher
	if cfg.IconRefreshCron != "" {
		refresher = icon.NewRefresher(loader, icons, cfg.IconStartupTimeout, logger)
		if err := refresher.Start(cfg.IconRefreshCron); err != nil {
			logger.Fatal("icon refresh", zap.Error(err))
		}
	}

	trackerService := service.NewTrackerService(tracker.New(), cfg.InputMaxLength)
	window := traffic.NewWindow()

	healthConfig := &httphandler.HealthConfig{
		CacheBackend:         cfg.CacheBackend,
		CachePing:            cachePing,
		BreakerState:         fetcher.State,
		Traffic:              window,
		OverloadWindow:       cfg.OverloadWindow,
		OverloadThresholdPct: cfg.OverloadThresholdPct,
	}
	handler := httphandler.NewHandler(trackerService, icons, cfg.IconSize, healthConfig, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	router := httphandler.NewRouter(handler, logger, httphandler.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		RateLimiter:    limiter,
		Traffic:        window,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		lifecycle.MarkStarted(time.Now())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if refresher != nil {
		refresher.Stop(shutdownCtx)
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if cacheCloser != nil {
		if err := cacheCloser.Close(); err != nil {
			logger.Error("cache close", zap.Error(err), zap.String("backend", cfg.CacheBackend))
		}
	}
	logger.Info("shutdown complete")
}

// newIconCache builds the configured cache backend. ping and closer are nil
// for the in-memory backend.
func newIconCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, func(context.Context) error, io.Closer) {
	switch cfg.CacheBackend {
	case "memcached":
		mc := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
		return cache.NewInstrumented(mc, "memcached"), mc.Ping, mc
	case "redis":
		rc := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		logger.Info("cache backend: redis", zap.String("addr", cfg.RedisAddr))
		return cache.NewInstrumented(rc, "redis"), rc.Ping, rc
	default:
		logger.Info("cache backend: in_memory")
		return cache.NewInstrumented(cache.NewInMemoryCache(), "in_memory"), nil, nil
	}
}
