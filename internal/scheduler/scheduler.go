package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-dashboard/internal/observability"
)

// Refresher rebuilds and stores the snapshot for one location query.
type Refresher interface {
	Refresh(ctx context.Context, query string) error
}

// Scheduler periodically refreshes dashboard snapshots for configured locations
// so the stale fallback has something recent to serve.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	locations []string
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a new Scheduler. A nil logger uses slog.Default and nil metrics
// are created unregistered.
func New(locations []string, interval time.Duration, service Refresher, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetricsWith(nil)
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		locations: locations,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes every location concurrently and waits for all of them.
func (s *Scheduler) RunOnce() {
	s.logger.Info("scheduler: running snapshot refresh", "locations", len(s.locations))

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if err := s.service.Refresh(ctx, loc); err != nil {
				s.metrics.RefreshRuns.WithLabelValues("error").Inc()
				s.logger.Warn("scheduler: refresh failed", "location", loc, "error", err)
				return
			}
			s.metrics.RefreshRuns.WithLabelValues("success").Inc()
		}()
	}
	wg.Wait()
	s.logger.Info("scheduler: completed snapshot refresh")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
