package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/metrics"
	"github.com/alejandrodnm/kalshibot/internal/ports"
	"github.com/alejandrodnm/kalshibot/internal/risk"
	"github.com/alejandrodnm/kalshibot/internal/strategy"
)

const (
	DefaultPollInterval = 30 * time.Second
	DefaultStopFile     = "STOP"
)

// Config holds configuration for the live polling engine.
type Config struct {
	PollInterval    time.Duration
	DryRun          bool
	RecordSnapshots bool
	// StopFile, when present on disk, ends Run at the next tick. Empty disables it.
	StopFile string
}

// Status is the engine view served by the status API.
type Status struct {
	DryRun     bool         `json:"dry_run"`
	Cycles     int          `json:"cycles"`
	Strategies []string     `json:"strategies"`
	LastCycle  *CycleResult `json:"last_cycle,omitempty"`
	Risk       risk.Summary `json:"risk"`
}

// Option configures optional collaborators of an Engine.
type Option func(*Engine)

// WithStore persists game states, market quotes, signals and trade outcomes.
func WithStore(store ports.TradeStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithPublisher broadcasts every CycleResult.
func WithPublisher(pubs ...ports.CyclePublisher) Option {
	return func(e *Engine) { e.publishers = append(e.publishers, pubs...) }
}

// Engine joins live scores with market quotes, evaluates strategies and
// routes actionable signals through the risk manager to the exchange.
type Engine struct {
	scores     ports.ScoreFeed
	resolver   ports.MarketResolver
	markets    ports.MarketFeed
	executor   ports.OrderExecutor
	store      ports.TradeStore
	publishers []ports.CyclePublisher
	risk       *risk.Manager
	strategies []strategy.Strategy
	cfg        Config
	newID      func() string

	mu     sync.RWMutex
	cycles int
	last   *CycleResult
}

// New creates the polling engine. executor may be nil only in dry-run mode.
func New(
	scores ports.ScoreFeed,
	resolver ports.MarketResolver,
	markets ports.MarketFeed,
	executor ports.OrderExecutor,
	riskMgr *risk.Manager,
	strategies []strategy.Strategy,
	cfg Config,
	opts ...Option,
) (*Engine, error) {
	if scores == nil || resolver == nil || markets == nil || riskMgr == nil {
		return nil, errors.New("live.New: score feed, resolver, market feed and risk manager are required")
	}
	if executor == nil && !cfg.DryRun {
		return nil, errors.New("live.New: an order executor is required outside dry-run mode")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	e := &Engine{
		scores:     scores,
		resolver:   resolver,
		markets:    markets,
		executor:   executor,
		risk:       riskMgr,
		strategies: strategies,
		cfg:        cfg,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run polls until ctx is cancelled or the stop file appears. The first cycle
// runs immediately. Only authentication failures end Run with an error.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("live: starting",
		"interval", e.cfg.PollInterval,
		"dry_run", e.cfg.DryRun,
		"strategies", len(e.strategies),
	)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if e.stopRequested() {
			slog.Info("live: stop file found, exiting", "file", e.cfg.StopFile)
			return nil
		}

		if _, err := e.RunOnce(ctx); err != nil {
			if errors.Is(err, domain.ErrAuth) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("live: cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("live: shutdown")
			return nil
		case <-ticker.C:
		}
	}
}

func (e *Engine) stopRequested() bool {
	if e.cfg.StopFile == "" {
		return false
	}
	_, err := os.Stat(e.cfg.StopFile)
	return err == nil
}

// Status returns a snapshot safe to serialize.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name
	}
	return Status{
		DryRun:     e.cfg.DryRun,
		Cycles:     e.cycles,
		Strategies: names,
		LastCycle:  e.last,
		Risk:       e.risk.Summary(),
	}
}

// RunOnce executes one polling cycle: day boundary → scores → markets →
// strategies → risk-gated execution.
func (e *Engine) RunOnce(ctx context.Context) (*CycleResult, error) {
	result := &CycleResult{StartedAt: time.Now(), DryRun: e.cfg.DryRun}
	defer e.finish(result)

	// 1. Day boundary and daily loss gate
	e.risk.ResetDaily()
	if e.risk.IsDailyLimitReached() {
		result.Skipped = true
		result.SkipReason = fmt.Sprintf("daily loss limit reached (%s)", domain.Dollars(e.risk.Summary().DailyPnL))
		slog.Warn("live: daily loss limit reached, skipping cycle")
		return result, nil
	}

	// 2. Live games across sports
	bySport, err := e.scores.FetchLiveGames(ctx)
	if err != nil {
		metrics.FeedErrors.WithLabelValues("espn", errKind(err)).Inc()
		result.Err = err.Error()
		return result, fmt.Errorf("live.RunOnce: fetch live games: %w", err)
	}

	for _, sport := range domain.Sports() {
		games := bySport[sport]
		metrics.LiveGames.WithLabelValues(string(sport)).Set(float64(len(games)))
		for _, game := range games {
			if ctx.Err() != nil {
				return result, nil
			}
			result.Games++
			result.LiveGames = append(result.LiveGames, game)

			// 3-5. Market, position, strategies, execution
			if err := e.processGame(ctx, game, result); err != nil {
				result.Err = err.Error()
				return result, err
			}
		}
	}

	slog.Info("live: cycle done",
		"games", result.Games,
		"markets", result.Markets,
		"signals", result.Signals,
		"blocked", result.Blocked,
		"executed", result.Executed,
		"dry_runs", result.DryRuns,
	)
	return result, nil
}

func (e *Engine) finish(result *CycleResult) {
	result.Duration = time.Since(result.StartedAt)

	switch {
	case result.Err != "":
		metrics.CyclesTotal.WithLabelValues("error").Inc()
	case result.Skipped:
		metrics.CyclesTotal.WithLabelValues("skipped").Inc()
	default:
		metrics.CyclesTotal.WithLabelValues("ok").Inc()
	}
	metrics.CycleDuration.Observe(result.Duration.Seconds())
	metrics.TotalExposure.Set(float64(e.risk.TotalExposure()))
	metrics.DailyPnL.Set(float64(e.risk.Summary().DailyPnL))

	e.mu.Lock()
	e.cycles++
	e.last = result
	e.mu.Unlock()

	for _, p := range e.publishers {
		p.Publish(result)
	}
}

func errKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrAuth):
		return "auth"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "api"
	}
}
