package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/internal/metrics"
)

const refreshJobName = "catalog_refresh"

// Refresher reloads the cached storefront and İKAS tables for every
// configured user.
type Refresher interface {
	RunAll(ctx context.Context) (refreshed, failed int, err error)
}

// RefreshWorker runs the catalog refresh on a cron schedule.
type RefreshWorker struct {
	refresher Refresher
	schedule  string
	timeout   time.Duration
	metrics   *metrics.CronJobMetrics

	cron    *cron.Cron
	running sync.Mutex
}

// NewRefreshWorker validates schedule (standard five-field cron syntax or a
// descriptor such as "@every 6h").
func NewRefreshWorker(refresher Refresher, schedule string, timeout time.Duration, m *metrics.CronJobMetrics) (*RefreshWorker, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &RefreshWorker{
		refresher: refresher,
		schedule:  schedule,
		timeout:   timeout,
		metrics:   m,
		cron:      cron.New(),
	}, nil
}

// Start registers the job and starts the scheduler. Runs that fire while the
// previous one is still going are skipped.
func (w *RefreshWorker) Start(ctx context.Context) error {
	if _, err := w.cron.AddFunc(w.schedule, func() { w.run(ctx) }); err != nil {
		return err
	}
	w.cron.Start()
	log.Info().Str("schedule", w.schedule).Dur("timeout", w.timeout).Msg("Starting refresh worker")
	return nil
}

// Stop halts the scheduler and waits for a running refresh to return.
func (w *RefreshWorker) Stop() {
	<-w.cron.Stop().Done()
	log.Info().Msg("Refresh worker stopped")
}

func (w *RefreshWorker) run(parent context.Context) {
	if !w.running.TryLock() {
		log.Warn().Msg("Previous refresh still running, skipping")
		return
	}
	defer w.running.Unlock()

	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()

	start := time.Now()
	refreshed, failed, err := w.refresher.RunAll(ctx)
	elapsed := time.Since(start)
	w.metrics.ObserveDuration(refreshJobName, elapsed)

	if err != nil {
		w.metrics.IncFailure(refreshJobName)
		log.Error().Err(err).Dur("duration", elapsed).Msg("Catalog refresh failed")
		return
	}
	w.metrics.IncSuccess(refreshJobName)
	log.Info().
		Int("refreshed", refreshed).
		Int("failed", failed).
		Dur("duration", elapsed).
		Msg("Catalog refresh completed")
}
