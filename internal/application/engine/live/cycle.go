package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/metrics"
)

// CycleResult contains everything produced by one polling cycle.
type CycleResult struct {
	StartedAt  time.Time          `json:"started_at"`
	Duration   time.Duration      `json:"duration_ns"`
	DryRun     bool               `json:"dry_run"`
	Skipped    bool               `json:"skipped"`
	SkipReason string             `json:"skip_reason,omitempty"`
	Err        string             `json:"error,omitempty"`
	Games      int                `json:"games"`
	Markets    int                `json:"markets"`
	Signals    int                `json:"signals"`
	Blocked    int                `json:"blocked"`
	Resized    int                `json:"resized"`
	DryRuns    int                `json:"dry_runs"`
	Executed   int                `json:"executed"`
	Failed     int                `json:"failed"`
	LiveGames  []domain.GameState `json:"live_games"`
	Decisions  []Decision         `json:"decisions"`
}

// Decision is what happened to one actionable signal.
type Decision struct {
	Strategy string             `json:"strategy"`
	EventID  string             `json:"event_id"`
	Matchup  string             `json:"matchup"`
	Signal   domain.TradeSignal `json:"signal"`
	Status   domain.TradeStatus `json:"status"`
	OrderID  string             `json:"order_id,omitempty"`
	Note     string             `json:"note,omitempty"`
}

// processGame resolves the game's market and runs every applicable strategy.
// Upstream failures skip the game; only ErrAuth from the executor is returned.
func (e *Engine) processGame(ctx context.Context, game domain.GameState, result *CycleResult) error {
	log := slog.With("event", game.EventID, "game", game.Matchup(), "sport", game.Sport)

	if e.cfg.RecordSnapshots && e.store != nil {
		if err := e.store.InsertGameState(ctx, game); err != nil {
			log.Warn("live: save game state", "err", err)
		}
	}

	ticker, err := e.resolver.ResolveTicker(ctx, game)
	if err != nil {
		if errors.Is(err, domain.ErrNoMarket) {
			log.Debug("live: no market for game")
		} else {
			metrics.FeedErrors.WithLabelValues("kalshi", errKind(err)).Inc()
			logUpstream(log, "live: resolve market", err)
		}
		return nil
	}

	market, err := e.markets.GetMarket(ctx, ticker)
	if err != nil {
		metrics.FeedErrors.WithLabelValues("kalshi", errKind(err)).Inc()
		logUpstream(log.With("ticker", ticker), "live: get market", err)
		return nil
	}
	result.Markets++

	if e.cfg.RecordSnapshots && e.store != nil {
		snap := domain.MarketSnapshot{EventID: game.EventID, Sport: game.Sport, Market: market}
		if err := e.store.InsertMarketSnapshot(ctx, game.ObservedAt, snap); err != nil {
			log.Warn("live: save market snapshot", "err", err)
		}
	}

	pos := e.position(ctx, ticker)

	for _, strat := range e.strategies {
		if ctx.Err() != nil {
			return nil
		}
		if !strat.AppliesTo(game.Sport) {
			continue
		}
		sig, ok := strat.Evaluate(game, market, pos)
		if !ok || !sig.IsActionable() {
			continue
		}
		result.Signals++
		metrics.SignalsTotal.WithLabelValues(strat.Name).Inc()

		tc := domain.TradeContext{
			EventID:  game.EventID,
			Sport:    game.Sport,
			Matchup:  game.Matchup(),
			Strategy: strat.Name,
		}
		if err := e.handleSignal(ctx, sig, tc, result); err != nil {
			return err
		}
	}
	return nil
}

// position is best-effort: any failure yields nil (unknown position).
func (e *Engine) position(ctx context.Context, ticker string) *domain.Position {
	if e.executor == nil {
		return nil
	}
	positions, err := e.executor.GetPositions(ctx, ticker)
	if err != nil {
		slog.Debug("live: positions unavailable", "ticker", ticker, "err", err)
		return nil
	}
	for i := range positions {
		if positions[i].Ticker == ticker {
			e.risk.UpdatePosition(positions[i])
			return &positions[i]
		}
	}
	return nil
}

// handleSignal gates sig through the risk manager and executes or simulates it.
func (e *Engine) handleSignal(ctx context.Context, sig domain.TradeSignal, tc domain.TradeContext, result *CycleResult) error {
	log := slog.With("strategy", tc.Strategy, "ticker", sig.Ticker, "side", sig.Side)
	if capped, ok := sig.CapPrice(); ok {
		log.Info("live: limit price capped", "from", sig.Price, "to", capped.Price)
		sig = capped
	}
	dec := Decision{Strategy: tc.Strategy, EventID: tc.EventID, Matchup: tc.Matchup, Signal: sig}

	if ok, reason := e.risk.CheckTrade(sig); !ok {
		result.Blocked++
		metrics.RiskRejections.Inc()
		log.Info("live: trade blocked by risk", "reason", reason, "size", sig.Size)
		dec.Status, dec.Note = domain.TradeRejected, reason
		e.persist(ctx, dec, tc, 0)
		result.Decisions = append(result.Decisions, dec)
		return nil
	}

	adjusted := e.risk.AdjustSignal(sig)
	if adjusted.Size != sig.Size {
		result.Resized++
		log.Info("live: signal resized", "from", sig.Size, "to", adjusted.Size)
	}
	dec.Signal = adjusted
	if adjusted.Size == 0 {
		result.Blocked++
		metrics.RiskRejections.Inc()
		log.Info("live: no position headroom left")
		dec.Status, dec.Note = domain.TradeRejected, "no position headroom"
		e.persist(ctx, dec, tc, 0)
		result.Decisions = append(result.Decisions, dec)
		return nil
	}

	if e.cfg.DryRun {
		result.DryRuns++
		log.Info("live: [DRY RUN] would trade",
			"kind", adjusted.Kind,
			"size", adjusted.Size,
			"price", adjusted.Price,
			"reason", adjusted.Reason,
		)
		dec.Status = domain.TradeDryRun
		e.persist(ctx, dec, tc, 0)
		result.Decisions = append(result.Decisions, dec)
		return nil
	}

	order := domain.OrderFromSignal(adjusted, e.newID())
	res, err := e.executor.PlaceOrder(ctx, order)
	if err != nil {
		result.Failed++
		dec.Status, dec.Note = domain.TradeFailed, err.Error()
		e.persist(ctx, dec, tc, 0)
		result.Decisions = append(result.Decisions, dec)
		metrics.FeedErrors.WithLabelValues("kalshi", errKind(err)).Inc()

		if errors.Is(err, domain.ErrAuth) {
			log.Error("live: authentication failed, stopping", "err", err)
			return fmt.Errorf("live.handleSignal: place order: %w", err)
		}
		logUpstream(log, "live: place order", err)
		return nil
	}

	result.Executed++
	log.Info("live: order placed",
		"order_id", res.ID,
		"status", res.Status,
		"size", adjusted.Size,
		"price", adjusted.Price,
	)
	// assumed fill at the signal price
	e.risk.RecordTrade(adjusted, adjusted.Price, 0)

	dec.Status, dec.OrderID = domain.TradeExecuted, res.ID
	e.persist(ctx, dec, tc, adjusted.Price)
	result.Decisions = append(result.Decisions, dec)
	return nil
}

// persist records the signal and its outcome. Storage failures are logged only.
func (e *Engine) persist(ctx context.Context, dec Decision, tc domain.TradeContext, fillPrice int) {
	metrics.TradesTotal.WithLabelValues(string(dec.Status)).Inc()
	if e.store == nil {
		return
	}

	executed := dec.Status == domain.TradeExecuted
	if _, err := e.store.InsertSignal(ctx, dec.Signal, tc, executed); err != nil {
		slog.Warn("live: save signal", "err", err)
	}

	reason := dec.Signal.Reason
	if dec.Note != "" {
		reason += " | " + dec.Note
	}
	entry := domain.TradeEntry{
		Timestamp:    dec.Signal.Timestamp,
		TradeContext: tc,
		Ticker:       dec.Signal.Ticker,
		Kind:         dec.Signal.Kind,
		Side:         dec.Signal.Side,
		Size:         dec.Signal.Size,
		Price:        dec.Signal.Price,
		FillPrice:    fillPrice,
		Status:       dec.Status,
		Reason:       reason,
	}
	if _, err := e.store.InsertTrade(ctx, entry); err != nil {
		slog.Warn("live: save trade", "err", err)
	}
}

func logUpstream(log *slog.Logger, msg string, err error) {
	if errors.Is(err, domain.ErrRateLimited) {
		log.Warn(msg+": rate limited", "err", err)
		return
	}
	log.Warn(msg, "err", err)
}

