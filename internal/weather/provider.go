package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoProvider is returned when the service has no upstream configured.
var ErrNoProvider = errors.New("no weather provider configured")

// Provider abstracts the upstream weather API. Both calls return the raw JSON
// body of a successful response; non-2xx responses come back as *UpstreamError.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]byte, error)
	Forecast(ctx context.Context, query string, days int) ([]byte, error)
}

// UpstreamError carries a non-2xx provider response so it can be relayed.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

// JSONBody reports whether the relayed body is valid JSON.
func (e *UpstreamError) JSONBody() bool {
	return len(e.Body) > 0 && json.Valid(e.Body)
}

// SnapshotStore persists display snapshots keyed by location query.
type SnapshotStore interface {
	Save(ctx context.Context, key string, d Dashboard) error
	Latest(ctx context.Context, key string) (Dashboard, error)
	Range(ctx context.Context, key string, from, to time.Time) ([]Dashboard, error)
}

// SnapshotPublisher fans fresh snapshots out to other consumers.
type SnapshotPublisher interface {
	Publish(ctx context.Context, d Dashboard) error
}

// FeatureSource resolves section toggles once per dashboard build.
type FeatureSource interface {
	Features(ctx context.Context) Features
}

// StaticFeatures is a FeatureSource with fixed toggles.
type StaticFeatures Features

func (s StaticFeatures) Features(context.Context) Features {
	return Features(s)
}
