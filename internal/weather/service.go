package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/weather-dashboard/internal/cache"
	"github.com/i474232898/weather-dashboard/internal/observability"
)

// Cache defaults mirror the provider's revalidation windows.
const (
	DefaultSearchTTL   = 24 * time.Hour
	DefaultForecastTTL = time.Hour
	DefaultCacheSize   = 500
)

// Service proxies the provider, builds dashboards and keeps the last good
// snapshot per location for offline use.
type Service struct {
	provider  Provider
	store     SnapshotStore
	publisher SnapshotPublisher
	features  FeatureSource
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	searchCache   *cache.TTL[string, []byte]
	forecastCache *cache.TTL[string, []byte]
	inflight      singleflight.Group
}

// Option customizes a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	publisher   SnapshotPublisher
	features    FeatureSource
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	searchTTL   time.Duration
	forecastTTL time.Duration
	cacheSize   int
}

// WithPublisher fans fresh snapshots out through p.
func WithPublisher(p SnapshotPublisher) Option {
	return func(o *serviceOptions) { o.publisher = p }
}

// WithFeatures sets the feature source consulted on each build.
func WithFeatures(f FeatureSource) Option {
	return func(o *serviceOptions) { o.features = f }
}

// WithClock sets the time source for dashboards and caches.
func WithClock(c clockwork.Clock) Option {
	return func(o *serviceOptions) { o.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *serviceOptions) { o.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *serviceOptions) { o.metrics = m }
}

// WithCache configures the proxy caches. Non-positive TTLs keep the defaults.
func WithCache(searchTTL, forecastTTL time.Duration, size int) Option {
	return func(o *serviceOptions) {
		if searchTTL > 0 {
			o.searchTTL = searchTTL
		}
		if forecastTTL > 0 {
			o.forecastTTL = forecastTTL
		}
		o.cacheSize = size
	}
}

// NewService creates a new Service.
func NewService(provider Provider, store SnapshotStore, opts ...Option) *Service {
	o := serviceOptions{
		features:    StaticFeatures(AllFeatures),
		clock:       clockwork.NewRealClock(),
		logger:      slog.Default(),
		searchTTL:   DefaultSearchTTL,
		forecastTTL: DefaultForecastTTL,
		cacheSize:   DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = observability.NewMetricsWith(nil)
	}

	return &Service{
		provider:      provider,
		store:         store,
		publisher:     o.publisher,
		features:      o.features,
		clock:         o.clock,
		logger:        o.logger,
		metrics:       o.metrics,
		searchCache:   cache.New[string, []byte](o.searchTTL, o.cacheSize, o.clock),
		forecastCache: cache.New[string, []byte](o.forecastTTL, o.cacheSize, o.clock),
	}
}

// Search returns the provider's location suggestions for query, unchanged.
func (s *Service) Search(ctx context.Context, query string) ([]byte, error) {
	key := SnapshotKey(query)
	return s.cached(ctx, "search", s.searchCache, key, func(ctx context.Context) ([]byte, error) {
		return s.provider.Search(ctx, query)
	})
}

// Forecast returns the provider's forecast JSON for query, unchanged.
func (s *Service) Forecast(ctx context.Context, query string, days int) ([]byte, error) {
	key := fmt.Sprintf("%s|%d", SnapshotKey(query), days)
	return s.cached(ctx, "forecast", s.forecastCache, key, func(ctx context.Context) ([]byte, error) {
		return s.provider.Forecast(ctx, query, days)
	})
}

func (s *Service) cached(
	ctx context.Context,
	endpoint string,
	c *cache.TTL[string, []byte],
	key string,
	fetch func(context.Context) ([]byte, error),
) ([]byte, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}
	if body, ok := c.Get(key); ok {
		s.metrics.ProxyCache.WithLabelValues(endpoint, "hit").Inc()
		return body, nil
	}
	s.metrics.ProxyCache.WithLabelValues(endpoint, "miss").Inc()

	// Concurrent misses for one key share a single provider call. The call
	// outlives any one caller's cancellation; each caller stops waiting on its own.
	ch := s.inflight.DoChan(endpoint+":"+key, func() (interface{}, error) {
		if body, ok := c.Get(key); ok {
			return body, nil
		}
		return s.fetchAndCache(context.WithoutCancel(ctx), endpoint, c, key, fetch)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (s *Service) fetchAndCache(
	ctx context.Context,
	endpoint string,
	c *cache.TTL[string, []byte],
	key string,
	fetch func(context.Context) ([]byte, error),
) ([]byte, error) {
	start := s.clock.Now()
	body, err := fetch(ctx)
	s.metrics.ProviderDuration.WithLabelValues(endpoint).Observe(s.clock.Since(start).Seconds())

	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream):
		s.metrics.ProviderRequests.WithLabelValues(endpoint, "upstream_error").Inc()
		return nil, err
	case err != nil:
		s.metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	s.metrics.ProviderRequests.WithLabelValues(endpoint, "success").Inc()

	c.Put(key, body)
	return body, nil
}

// Dashboard builds the display snapshot for query. When the provider cannot
// be reached the last stored snapshot is returned marked as stale.
func (s *Service) Dashboard(ctx context.Context, query string, days int) (Dashboard, error) {
	d, err := s.build(ctx, query, days)
	if err == nil {
		return d, nil
	}

	if s.store == nil {
		return Dashboard{}, err
	}
	cached, serr := s.store.Latest(ctx, SnapshotKey(query))
	if serr != nil {
		return Dashboard{}, err
	}

	s.logger.Warn("provider unavailable, serving cached snapshot",
		"query", query,
		"snapshot_id", cached.ID,
		"updated_at", cached.UpdatedAt,
		"error", err,
	)
	s.metrics.DashboardsStale.Inc()
	cached.Stale = true
	return cached, nil
}

// Refresh rebuilds and stores the snapshot for query without falling back.
func (s *Service) Refresh(ctx context.Context, query string) error {
	_, err := s.build(ctx, query, ForecastDays)
	return err
}

// History returns stored snapshots for query between from and to inclusive.
func (s *Service) History(ctx context.Context, query string, from, to time.Time) ([]Dashboard, error) {
	if s.store == nil {
		return nil, errors.New("snapshot store not configured")
	}
	return s.store.Range(ctx, SnapshotKey(query), from, to)
}

func (s *Service) build(ctx context.Context, query string, days int) (Dashboard, error) {
	body, err := s.Forecast(ctx, query, days)
	if err != nil {
		return Dashboard{}, fmt.Errorf("fetch forecast: %w", err)
	}

	var resp ForecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Dashboard{}, fmt.Errorf("decode forecast: %w", err)
	}

	d := BuildDashboard(resp, s.clock.Now(), s.features.Features(ctx))
	d.ID = uuid.NewString()
	d.Query = query
	s.metrics.DashboardsBuilt.Inc()

	if s.store != nil {
		if err := s.store.Save(ctx, SnapshotKey(query), d); err != nil {
			s.metrics.SnapshotErrors.WithLabelValues("save").Inc()
			s.logger.Warn("save snapshot failed", "query", query, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, d); err != nil {
			s.metrics.SnapshotErrors.WithLabelValues("publish").Inc()
			s.logger.Warn("publish snapshot failed", "query", query, "error", err)
		}
	}

	return d, nil
}

// SnapshotKey canonicalizes a location query for caching and storage.
func SnapshotKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
