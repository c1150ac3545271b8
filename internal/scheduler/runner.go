// Package scheduler runs periodic maintenance jobs next to the trading loop.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/metrics"
)

const (
	// DefaultRollupSpec rolls the daily summary up at 00:05:00 every day.
	DefaultRollupSpec = "0 5 0 * * *"
	// DefaultResetSpec moves the risk manager to the new day at midnight.
	DefaultResetSpec = "0 0 0 * * *"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Runner wraps a seconds-precision cron. Overlapping runs of the same job
// are skipped.
type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
}

// New creates a runner whose jobs receive baseCtx.
func New(baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		baseCtx: baseCtx,
	}
}

// Add registers job under spec (six fields, or a descriptor like "@every 1m").
func (r *Runner) Add(name, spec string, job Job) (cron.EntryID, error) {
	id, err := r.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job(r.baseCtx); err != nil {
			metrics.JobRuns.WithLabelValues(name, "error").Inc()
			slog.Warn("scheduler: job failed", "job", name, "err", err)
			return
		}
		metrics.JobRuns.WithLabelValues(name, "ok").Inc()
		slog.Debug("scheduler: job done", "job", name, "took", time.Since(start))
	})
	if err != nil {
		return 0, fmt.Errorf("scheduler.Add: %s %q: %w", name, spec, err)
	}
	return id, nil
}

// Start runs the scheduler in its own goroutine.
func (r *Runner) Start() {
	slog.Info("scheduler: started", "jobs", len(r.cron.Entries()))
	r.cron.Start()
}

// Stop waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	slog.Info("scheduler: stopped")
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

// SummaryRoller is the store side of the daily roll-up.
type SummaryRoller interface {
	RollupDailySummary(ctx context.Context, date time.Time) (domain.DailySummary, error)
}

// DailyRollup recomputes yesterday's and today's daily_summary rows.
func DailyRollup(store SummaryRoller, now func() time.Time) Job {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		today := now()
		for _, day := range []time.Time{today.AddDate(0, 0, -1), today} {
			sum, err := store.RollupDailySummary(ctx, day)
			if err != nil {
				return fmt.Errorf("scheduler.DailyRollup: %s: %w", day.Format("2006-01-02"), err)
			}
			slog.Info("scheduler: daily summary",
				"date", sum.Date,
				"signals", sum.TotalSignals,
				"trades", sum.TotalTrades,
				"pnl", domain.Dollars(sum.TotalPnL),
			)
		}
		return nil
	}
}

// DayResetter is the risk-manager side of the day boundary.
type DayResetter interface {
	ResetDaily()
}

// RiskDayBoundary resets daily risk counters even when no cycle runs.
func RiskDayBoundary(r DayResetter) Job {
	return func(context.Context) error {
		r.ResetDaily()
		return nil
	}
}

// Pruner is the store side of snapshot retention.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// StoragePrune drops snapshots past their retention window.
func StoragePrune(p Pruner) Job {
	return func(ctx context.Context) error {
		if _, err := p.Prune(ctx); err != nil {
			return fmt.Errorf("scheduler.StoragePrune: %w", err)
		}
		return nil
	}
}
