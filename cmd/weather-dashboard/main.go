package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-dashboard/internal/adapter/kafka"
	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	if err := run(); err != nil {
		slog.Error("weather-dashboard stopped", "error", err)
		os.Exit(1)
	}
}

// run wires the service and blocks until SIGINT or SIGTERM.
func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	metrics := observability.NewMetrics()

	if cfg.WeatherAPIKey == "" {
		log.Warn("WEATHER_API_KEY is not set; provider requests will fail")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// WeatherAPI client with resilience (backoff + circuit breaker) behind a rate limiter.
	var provider weather.Provider = providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIURL, cfg.WeatherAPIKey)
	provider = providers.NewRateLimitedProvider(provider, cfg.ProviderRPS, cfg.ProviderBurst)

	// Snapshot store: SQLite when a path is configured, memory otherwise.
	var snapshots weather.SnapshotStore
	if cfg.SnapshotDBPath != "" {
		db, err := store.OpenSQLite(cfg.SnapshotDBPath, cfg.StoreMaxHistory, cfg.StoreMaxAge, nil)
		if err != nil {
			return fmt.Errorf("open snapshot database: %w", err)
		}
		defer db.Close()
		snapshots = db
	} else {
		snapshots = store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge, nil)
	}

	opts := []weather.Option{
		weather.WithLogger(log),
		weather.WithMetrics(metrics),
		weather.WithFeatures(weather.StaticFeatures(cfg.Features)),
		weather.WithCache(cfg.SearchCacheTTL, cfg.ForecastCacheTTL, cfg.CacheSize),
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaSnapshotTopic, log)
		defer pub.Close()
		opts = append(opts, weather.WithPublisher(pub))
		log.Info("publishing snapshots to kafka", "topic", cfg.KafkaSnapshotTopic)
	}

	// Core service orchestrating provider, cache and store.
	service := weather.NewService(provider, snapshots, opts...)

	// Scheduler that keeps snapshots of the configured locations warm.
	sched := scheduler.New(cfg.Locations, cfg.RefreshInterval, service, log, metrics)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler:          httpapi.NewErrorHandler(log),
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service, cfg.DefaultLocation, log)

	go func() {
		log.Info("http server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
