package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the dashboard service.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec   // labels: endpoint={search,forecast}, outcome={success,upstream_error,error}
	ProviderDuration *prometheus.HistogramVec // labels: endpoint
	ProxyCache       *prometheus.CounterVec   // labels: endpoint, result={hit,miss}

	DashboardsBuilt prometheus.Counter
	DashboardsStale prometheus.Counter
	SnapshotErrors  *prometheus.CounterVec // labels: op={save,publish}
	RefreshRuns     *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates all metrics and registers them with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics and registers them with reg.
// A nil reg leaves them unregistered, which tests use to avoid
// "already registered" panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_dashboard",
			Name:      "provider_requests_total",
			Help:      "Upstream weather API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_dashboard",
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream weather API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		ProxyCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_dashboard",
			Name:      "proxy_cache_total",
			Help:      "Proxy cache lookups by endpoint and result.",
		}, []string{"endpoint", "result"}),
		DashboardsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_dashboard",
			Name:      "dashboards_built_total",
			Help:      "Dashboards built from fresh provider data.",
		}),
		DashboardsStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_dashboard",
			Name:      "dashboards_stale_total",
			Help:      "Dashboards served from the snapshot store because the provider failed.",
		}),
		SnapshotErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_dashboard",
			Name:      "snapshot_errors_total",
			Help:      "Snapshot persistence and publishing failures.",
		}, []string{"op"}),
		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_dashboard",
			Name:      "refresh_runs_total",
			Help:      "Scheduled snapshot refreshes by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ProviderRequests,
			m.ProviderDuration,
			m.ProxyCache,
			m.DashboardsBuilt,
			m.DashboardsStale,
			m.SnapshotErrors,
			m.RefreshRuns,
		)
	}

	return m
}
