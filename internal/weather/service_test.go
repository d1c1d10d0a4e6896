package weather_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// --- fakes ---

type fakeProvider struct {
	mu            sync.Mutex
	forecastBody  []byte
	forecastErr   error
	searchBody    []byte
	forecastCalls int
	searchCalls   int
	gate          chan struct{} // when set, Forecast blocks until it is closed
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Search(_ context.Context, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	return f.searchBody, nil
}

func (f *fakeProvider) Forecast(_ context.Context, _ string, _ int) ([]byte, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forecastCalls++
	if f.forecastErr != nil {
		return nil, f.forecastErr
	}
	return f.forecastBody, nil
}

func (f *fakeProvider) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forecastErr = err
}

type fakeStore struct {
	mu    sync.Mutex
	saved map[string][]weather.Dashboard
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[string][]weather.Dashboard)}
}

func (s *fakeStore) Save(_ context.Context, key string, d weather.Dashboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved[key] = append(s.saved[key], d)
	return nil
}

func (s *fakeStore) Latest(_ context.Context, key string) (weather.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.saved[key]
	if len(h) == 0 {
		return weather.Dashboard{}, errors.New("not found")
	}
	return h[len(h)-1], nil
}

func (s *fakeStore) Range(_ context.Context, key string, _, _ time.Time) ([]weather.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[key], nil
}

type fakePublisher struct {
	published []weather.Dashboard
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, d weather.Dashboard) error {
	p.published = append(p.published, d)
	return p.err
}

func fixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/forecast.json")
	require.NoError(t, err)
	return data
}

func newTestService(t *testing.T, opts ...weather.Option) (*weather.Service, *fakeProvider, *fakeStore, *clockwork.FakeClock) {
	t.Helper()
	prov := &fakeProvider{forecastBody: fixture(t), searchBody: []byte(`[{"name":"Kuala Lumpur"}]`)}
	store := newFakeStore()
	clk := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 1, 30, 0, 0, time.UTC))
	opts = append([]weather.Option{weather.WithClock(clk)}, opts...)
	return weather.NewService(prov, store, opts...), prov, store, clk
}

// --- tests ---

func TestService_Dashboard(t *testing.T) {
	svc, _, store, _ := newTestService(t)

	d, err := svc.Dashboard(context.Background(), " Kuala Lumpur ", 7)
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, " Kuala Lumpur ", d.Query)
	assert.Equal(t, "Kuala Lumpur, Malaysia", d.Location)
	assert.False(t, d.Stale)
	assert.Len(t, d.Forecast, weather.ForecastDays)
	assert.Len(t, d.Hourly, 2)

	require.Len(t, store.saved["kuala lumpur"], 1)
	assert.Equal(t, d.ID, store.saved["kuala lumpur"][0].ID)
}

func TestService_DashboardFallsBackToSnapshot(t *testing.T) {
	svc, prov, _, clk := newTestService(t)
	ctx := context.Background()

	fresh, err := svc.Dashboard(ctx, "Kuala Lumpur", 7)
	require.NoError(t, err)

	prov.fail(errors.New("connection refused"))
	clk.Advance(2 * time.Hour) // past the forecast cache ttl

	stale, err := svc.Dashboard(ctx, "kuala lumpur", 7)
	require.NoError(t, err)
	assert.True(t, stale.Stale)
	assert.Equal(t, fresh.ID, stale.ID)
}

func TestService_DashboardErrorWithoutSnapshot(t *testing.T) {
	svc, prov, _, _ := newTestService(t)
	prov.fail(&weather.UpstreamError{StatusCode: 400, Body: []byte(`{"error":{"code":1006}}`)})

	_, err := svc.Dashboard(context.Background(), "Atlantis", 7)
	require.Error(t, err)

	var upstream *weather.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 400, upstream.StatusCode)
}

func TestService_DashboardDecodeError(t *testing.T) {
	svc, prov, _, _ := newTestService(t)
	prov.forecastBody = []byte(`<html>`)

	_, err := svc.Dashboard(context.Background(), "Kuala Lumpur", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode forecast")
}

func TestService_ForecastIsCached(t *testing.T) {
	svc, prov, _, clk := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Forecast(ctx, "Kuala Lumpur", 3)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, prov.forecastCalls)

	_, err := svc.Forecast(ctx, "Kuala Lumpur", 7)
	require.NoError(t, err)
	assert.Equal(t, 2, prov.forecastCalls, "days is part of the cache key")

	clk.Advance(time.Hour)
	_, err = svc.Forecast(ctx, "Kuala Lumpur", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, prov.forecastCalls, "forecast cache expires after an hour")
}

func TestService_SearchIsCachedForADay(t *testing.T) {
	svc, prov, _, clk := newTestService(t)
	ctx := context.Background()

	body, err := svc.Search(ctx, "kual")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Kuala Lumpur"}]`, string(body))

	clk.Advance(23 * time.Hour)
	_, err = svc.Search(ctx, "KUAL")
	require.NoError(t, err)
	assert.Equal(t, 1, prov.searchCalls)

	clk.Advance(time.Hour)
	_, err = svc.Search(ctx, "kual")
	require.NoError(t, err)
	assert.Equal(t, 2, prov.searchCalls)
}

func TestService_UpstreamErrorsAreNotCached(t *testing.T) {
	svc, prov, _, _ := newTestService(t)
	ctx := context.Background()

	prov.fail(&weather.UpstreamError{StatusCode: 503})
	_, err := svc.Forecast(ctx, "Kuala Lumpur", 3)
	require.Error(t, err)

	prov.fail(nil)
	_, err = svc.Forecast(ctx, "Kuala Lumpur", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, prov.forecastCalls)
}

func TestService_FeaturesAndPublisher(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, _, _, _ := newTestService(t,
		weather.WithFeatures(weather.StaticFeatures{ShowDaily: true}),
		weather.WithPublisher(pub),
	)

	d, err := svc.Dashboard(context.Background(), "Kuala Lumpur", 7)
	require.NoError(t, err, "publish failures do not fail the build")

	assert.Nil(t, d.AirQuality)
	assert.Nil(t, d.Hourly)
	assert.Len(t, d.Forecast, weather.ForecastDays)
	require.Len(t, pub.published, 1)
	assert.Equal(t, d.ID, pub.published[0].ID)
}

func TestService_SaveFailureStillReturnsDashboard(t *testing.T) {
	svc, _, store, _ := newTestService(t)
	store.err = errors.New("disk full")

	d, err := svc.Dashboard(context.Background(), "Kuala Lumpur", 7)
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
}

func TestService_Refresh(t *testing.T) {
	svc, prov, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Refresh(ctx, "Kuala Lumpur"))
	assert.Len(t, store.saved["kuala lumpur"], 1)

	prov.fail(errors.New("timeout"))
	svc2 := weather.NewService(prov, store)
	assert.Error(t, svc2.Refresh(ctx, "Kuala Lumpur"), "refresh never serves stale data")
}

func TestService_History(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Dashboard(ctx, "Kuala Lumpur", 7)
	require.NoError(t, err)

	h, err := svc.History(ctx, "Kuala Lumpur", time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

func TestService_NoProvider(t *testing.T) {
	svc := weather.NewService(nil, nil)

	_, err := svc.Search(context.Background(), "x")
	assert.ErrorIs(t, err, weather.ErrNoProvider)

	_, err = svc.Dashboard(context.Background(), "x", 7)
	assert.ErrorIs(t, err, weather.ErrNoProvider)
}

func TestService_ConcurrentMissesShareOneProviderCall(t *testing.T) {
	m := observability.NewMetricsWith(nil)
	svc, prov, _, _ := newTestService(t, weather.WithMetrics(m))
	prov.gate = make(chan struct{})

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Forecast(context.Background(), "Kuala Lumpur", 3)
			errs <- err
		}()
	}

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.ProxyCache.WithLabelValues("forecast", "miss")) == callers
	}, time.Second, time.Millisecond)
	close(prov.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, prov.forecastCalls)
}

func TestService_CanceledCallerStopsWaiting(t *testing.T) {
	svc, prov, _, _ := newTestService(t)
	prov.gate = make(chan struct{})
	defer close(prov.gate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Forecast(ctx, "Kuala Lumpur", 3)
	assert.ErrorIs(t, err, context.Canceled)
}
