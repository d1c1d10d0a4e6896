package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrNotFound is returned when no snapshot is available for a given location.
	ErrNotFound = errors.New("no weather snapshot for location")
)

// SnapshotHistory holds a time-ordered list of dashboard snapshots for a location.
type SnapshotHistory struct {
	Snapshots []weather.Dashboard
}

// MemoryStore is a concurrency-safe in-memory implementation of weather.SnapshotStore.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*SnapshotHistory

	// retention configuration
	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // optional max age for snapshots
	clock      clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited. A nil clock uses wall time.
func NewMemoryStore(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:       make(map[string]*SnapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// Save appends a new snapshot for a location and enforces retention.
func (s *MemoryStore) Save(_ context.Context, key string, d weather.Dashboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &SnapshotHistory{}
		s.data[key] = history
	}

	history.Snapshots = append(history.Snapshots, d)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Snapshots) > s.maxHistory {
		over := len(history.Snapshots) - s.maxHistory
		history.Snapshots = history.Snapshots[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Snapshots); i++ {
			if !history.Snapshots[i].UpdatedAt.Before(cutoff) {
				break
			}
		}
		history.Snapshots = history.Snapshots[i:]
	}
	return nil
}

// Latest returns the most recent snapshot for a location.
func (s *MemoryStore) Latest(_ context.Context, key string) (weather.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return weather.Dashboard{}, ErrNotFound
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// Range returns all snapshots for a location between from and to (inclusive).
// A zero to means no upper bound.
func (s *MemoryStore) Range(_ context.Context, key string, from, to time.Time) ([]weather.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Dashboard
	for _, snap := range history.Snapshots {
		if inRange(snap.UpdatedAt, from, to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}

func inRange(ts, from, to time.Time) bool {
	if ts.Before(from) {
		return false
	}
	return to.IsZero() || !ts.After(to)
}

var _ weather.SnapshotStore = (*MemoryStore)(nil)
