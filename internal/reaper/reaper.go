package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/hireloop/engine/internal/metrics"
	"github.com/hireloop/engine/internal/repository"
	"github.com/robfig/cron/v3"
)

const sweepBatchSize = 100

// Reaper periodically expires stale introduction requests, lapses
// protection windows, and cancels interview proposals whose slots have
// all passed. Every sweep transition is a guarded bulk update, so
// multiple reaper instances can run side by side.
type Reaper struct {
	intros     repository.IntroductionRepository
	interviews repository.InterviewRepository
	cronSpec   string
	logger     *slog.Logger
}

func New(
	intros repository.IntroductionRepository,
	interviews repository.InterviewRepository,
	cronSpec string,
	logger *slog.Logger,
) *Reaper {
	return &Reaper{
		intros:     intros,
		interviews: interviews,
		cronSpec:   cronSpec,
		logger:     logger.With("component", "reaper"),
	}
}

// Start schedules sweeps per the cron spec and blocks until ctx is done.
func (r *Reaper) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(r.cronSpec, func() {
		r.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	r.logger.Info("reaper started", "cron_spec", r.cronSpec)
	c.Start()

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	r.logger.Info("reaper shut down")
	return nil
}

// Sweep runs one reap cycle. Each phase is independent; a failure in one
// does not block the others.
func (r *Reaper) Sweep(ctx context.Context) {
	started := time.Now()
	now := started

	expired, err := r.intros.ExpireStaleRequests(ctx, now, sweepBatchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "expire stale requests failed", "error", err)
	} else if expired > 0 {
		metrics.ReaperExpiredTotal.WithLabelValues("stale_request").Add(float64(expired))
		r.logger.InfoContext(ctx, "expired stale introduction requests", "count", expired)
	}

	lapsed, err := r.intros.ExpireLapsedProtection(ctx, now, sweepBatchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "expire lapsed protection failed", "error", err)
	} else if lapsed > 0 {
		metrics.ReaperExpiredTotal.WithLabelValues("lapsed_protection").Add(float64(lapsed))
		r.logger.InfoContext(ctx, "expired lapsed protection windows", "count", lapsed)
	}

	cancelled, err := r.interviews.CancelStale(ctx, now, sweepBatchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "cancel stale proposals failed", "error", err)
	} else if cancelled > 0 {
		metrics.ReaperExpiredTotal.WithLabelValues("stale_proposal").Add(float64(cancelled))
		r.logger.InfoContext(ctx, "cancelled stale interview proposals", "count", cancelled)
	}

	metrics.ReaperCycleDuration.Observe(time.Since(started).Seconds())
}
