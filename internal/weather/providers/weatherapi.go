package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultWeatherAPIURL is the WeatherAPI.com v1 base URL.
const DefaultWeatherAPIURL = "https://api.weatherapi.com/v1"

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
// The API key is added server-side and never leaves this process.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// WeatherAPIOption customizes a WeatherAPIProvider.
type WeatherAPIOption func(*WeatherAPIProvider)

// WithBackoff overrides the retry policy.
func WithBackoff(b BackoffConfig) WeatherAPIOption {
	return func(p *WeatherAPIProvider) { p.httpCfg.Backoff = b }
}

// NewWeatherAPIProvider creates a WeatherAPI.com client. An empty baseURL
// uses DefaultWeatherAPIURL.
func NewWeatherAPIProvider(client *http.Client, baseURL, apiKey string, opts ...WeatherAPIOption) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIURL
	}

	p := &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("weatherapi"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// Search calls search.json and returns the provider's body unchanged.
func (p *WeatherAPIProvider) Search(ctx context.Context, query string) ([]byte, error) {
	values := url.Values{}
	values.Set("q", query)
	return p.get(ctx, "search.json", values)
}

// Forecast calls forecast.json with air quality and alerts enabled and
// returns the provider's body unchanged.
func (p *WeatherAPIProvider) Forecast(ctx context.Context, query string, days int) ([]byte, error) {
	values := url.Values{}
	// WeatherAPI uses "q" for location; it accepts a name, postcode or "lat,lon".
	values.Set("q", query)
	values.Set("days", strconv.Itoa(days))
	values.Set("aqi", "yes")
	values.Set("alerts", "yes")
	return p.get(ctx, "forecast.json", values)
}

func (p *WeatherAPIProvider) get(ctx context.Context, endpoint string, values url.Values) ([]byte, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("weatherapi api key is not configured")
	}
	values.Set("key", p.apiKey)

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	body, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", p.name, endpoint, err)
	}
	return body, nil
}

var _ weather.Provider = (*WeatherAPIProvider)(nil)
