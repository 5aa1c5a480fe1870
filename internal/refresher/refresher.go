// Package refresher periodically re-fetches provider statistics so cached
// data stays fresh without manual refresh calls.
package refresher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vuhnger/backend/internal/services"
)

// Job is one named refresh unit, typically a provider service's RefreshAll.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type Refresher struct {
	interval time.Duration
	jobs     []Job
	logger   *slog.Logger
}

func New(interval time.Duration, logger *slog.Logger, jobs ...Job) *Refresher {
	return &Refresher{interval: interval, jobs: jobs, logger: logger}
}

// Start runs all jobs once immediately, then on every tick until ctx is
// cancelled. Job failures are logged and never stop the loop; a provider
// that has not completed its OAuth flow yet is expected and logged at a
// lower level.
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info("refresh scheduler started", slog.Duration("interval", r.interval))

	r.runAll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			r.runAll(ctx)
		}
	}
}

func (r *Refresher) runAll(ctx context.Context) {
	for _, job := range r.jobs {
		start := time.Now()
		err := job.Run(ctx)
		switch {
		case err == nil:
			r.logger.Info("refresh complete",
				slog.String("job", job.Name),
				slog.Duration("elapsed", time.Since(start)),
			)
		case errors.Is(err, services.ErrNotAuthenticated):
			r.logger.Debug("refresh skipped, not authenticated", slog.String("job", job.Name))
		case errors.Is(err, context.Canceled):
			return
		default:
			r.logger.Error("refresh failed",
				slog.String("job", job.Name),
				slog.Any("error", err),
			)
		}
	}
}
