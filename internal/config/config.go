package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

type AppConfig struct {
	WeatherAPIURL string
	WeatherAPIKey string

	Port            string
	HTTPTimeout     time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string

	// DefaultLocation is used by the dashboard when no query is given.
	DefaultLocation string
	// Locations are refreshed by the scheduler every RefreshInterval.
	Locations       []string
	RefreshInterval time.Duration

	SearchCacheTTL   time.Duration
	ForecastCacheTTL time.Duration
	CacheSize        int

	ProviderRPS   float64
	ProviderBurst int

	// Snapshot store retention, applied by both the memory and SQLite stores.
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)
	// SnapshotDBPath switches snapshot storage to SQLite when set.
	SnapshotDBPath  string

	Features weather.Features

	KafkaBrokers       []string
	KafkaSnapshotTopic string
}

// Load reads configuration from environment with sensible defaults. A .env
// file in the working directory is loaded first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		WeatherAPIURL:      getenvDefault("WEATHER_API_URL", "https://api.weatherapi.com/v1"),
		WeatherAPIKey:      os.Getenv("WEATHER_API_KEY"),
		Port:               getenvDefault("PORT", "8080"),
		LogLevel:           getenvDefault("LOG_LEVEL", "info"),
		LogFormat:          getenvDefault("LOG_FORMAT", "json"),
		DefaultLocation:    strings.TrimSpace(getenvDefault("DEFAULT_LOCATION", "Kuala Lumpur")),
		SnapshotDBPath:     os.Getenv("SNAPSHOT_DB_PATH"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaSnapshotTopic: getenvDefault("KAFKA_SNAPSHOT_TOPIC", "weather-snapshots"),
	}

	var err error
	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"SHUTDOWN_TIMEOUT", "10s", &cfg.ShutdownTimeout},
		{"REFRESH_INTERVAL", "30m", &cfg.RefreshInterval},
		{"SEARCH_CACHE_TTL", "24h", &cfg.SearchCacheTTL},
		{"FORECAST_CACHE_TTL", "1h", &cfg.ForecastCacheTTL},
		{"STORE_MAX_AGE", "24h", &cfg.StoreMaxAge},
	}
	for _, d := range durations {
		if *d.dst, err = getenvDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	// Store retention: roughly two days at the default refresh interval.
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 96); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = getenvInt("CACHE_SIZE", 500); err != nil {
		return nil, err
	}
	if cfg.ProviderBurst, err = getenvInt("PROVIDER_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.ProviderRPS, err = getenvFloat("PROVIDER_RPS", 1); err != nil {
		return nil, err
	}

	if cfg.Features.ShowDaily, err = getenvBool("FEATURE_SHOW_DAILY", true); err != nil {
		return nil, err
	}
	if cfg.Features.ShowHourly, err = getenvBool("FEATURE_SHOW_HOURLY", true); err != nil {
		return nil, err
	}
	if cfg.Features.ShowAirQuality, err = getenvBool("FEATURE_SHOW_AIR_QUALITY", true); err != nil {
		return nil, err
	}

	cfg.Locations = splitList(os.Getenv("WEATHER_LOCATIONS"))
	if len(cfg.Locations) == 0 && cfg.DefaultLocation != "" {
		cfg.Locations = []string{cfg.DefaultLocation}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.DefaultLocation == "" {
		return errors.New("DEFAULT_LOCATION must not be empty")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.RefreshInterval < time.Minute {
		return errors.New("REFRESH_INTERVAL must be at least 1m")
	}
	if c.CacheSize <= 0 {
		return errors.New("CACHE_SIZE must be positive")
	}
	if c.ProviderRPS <= 0 {
		return errors.New("PROVIDER_RPS must be positive")
	}
	if c.ProviderBurst <= 0 {
		return errors.New("PROVIDER_BURST must be positive")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
