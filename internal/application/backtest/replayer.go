// Package backtest replays persisted game-state snapshots through the
// strategies against a market quote synthesized from the score margin, and
// settles each simulated entry against the event's final score.
//
// The replay is pure: no network, no clock, no randomness. The same snapshots
// and strategies always produce the same result.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
	"github.com/alejandrodnm/kalshibot/internal/strategy"
)

const (
	baseProbability = 50
	centsPerPoint   = 3
	maxAdjustment   = 40
	minYesPrice     = 5
	maxYesPrice     = 95
	quoteSpread     = 2
	// defaultEntry is used when the signal carries no limit price.
	defaultEntry = 50
)

const dateLayout = "2006-01-02"

// Range selects the snapshots to replay. Zero From/To means unbounded; To is
// inclusive at day granularity.
type Range struct {
	From  time.Time
	To    time.Time
	Sport domain.Sport
}

// Replayer runs backtests over a snapshot store.
type Replayer struct {
	store      ports.SnapshotStore
	strategies []strategy.Strategy
}

// NewReplayer creates a replayer for the given strategies.
func NewReplayer(store ports.SnapshotStore, strategies []strategy.Strategy) *Replayer {
	return &Replayer{store: store, strategies: strategies}
}

// Run replays every event in the range. Missing data yields an empty result.
func (r *Replayer) Run(ctx context.Context, rng Range) (domain.BacktestResult, error) {
	snapshots, err := r.store.GameStates(ctx, ports.GameStateQuery{From: rng.From, To: rng.To, Sport: rng.Sport})
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("backtest.Run: load snapshots: %w", err)
	}
	return r.Replay(snapshots, rng), nil
}

// Replay runs the backtest over snapshots already ordered by time.
func (r *Replayer) Replay(snapshots []domain.GameState, rng Range) domain.BacktestResult {
	result := domain.BacktestResult{
		StartDate:  formatDate(rng.From),
		EndDate:    formatDate(rng.To),
		Strategies: r.names(),
		Trades:     []domain.BacktestTrade{},
	}
	if len(snapshots) == 0 {
		slog.Warn("backtest: no historical data in range")
		return result
	}
	if result.StartDate == "" {
		result.StartDate = formatDate(snapshots[0].ObservedAt)
	}
	if result.EndDate == "" {
		result.EndDate = formatDate(snapshots[len(snapshots)-1].ObservedAt)
	}

	order, events := groupByEvent(snapshots)
	for _, id := range order {
		r.replayEvent(events[id], &result)
	}

	slog.Info("backtest: done",
		"events", len(order),
		"signals", result.TotalSignals,
		"trades", result.TotalTrades,
		"pnl", result.TotalPnLDollars(),
	)
	return result
}

func (r *Replayer) replayEvent(snaps []domain.GameState, result *domain.BacktestResult) {
	final := snaps[len(snaps)-1]
	signaled := make(map[string]bool, len(r.strategies))

	for _, snap := range snaps {
		if !snap.IsLive() {
			continue
		}
		market := SynthesizeMarket(snap)

		for _, s := range r.strategies {
			if signaled[s.Name] || !s.AppliesTo(snap.Sport) {
				continue
			}
			sig, ok := s.Evaluate(snap, market, nil)
			if !ok || !sig.IsActionable() {
				continue
			}
			signaled[s.Name] = true
			result.TotalSignals++

			outcome, exit, pnl := Settle(sig, final)
			result.Trades = append(result.Trades, domain.BacktestTrade{
				Timestamp:  snap.ObservedAt,
				EventID:    snap.EventID,
				Sport:      snap.Sport,
				Matchup:    snap.Matchup(),
				Strategy:   s.Name,
				Signal:     sig.Kind,
				Side:       sig.Side,
				Size:       sig.Size,
				EntryPrice: entryPrice(sig),
				ExitPrice:  exit,
				PnL:        pnl,
				Outcome:    outcome,
			})
			result.TotalTrades++
			result.TotalPnL += pnl
			if outcome == domain.OutcomeWin {
				result.WinningTrades++
			} else {
				result.LosingTrades++
			}
		}
	}
}

// SynthesizeMarket prices the home team's YES contract linearly from the
// margin: 50¢ ± 3¢ per point, the adjustment capped at 40 and the price
// clamped to [5, 95].
func SynthesizeMarket(snap domain.GameState) domain.MarketState {
	margin := snap.Margin()
	adj := min(maxAdjustment, abs(margin)*centsPerPoint)

	var yes int
	if margin > 0 {
		yes = min(maxYesPrice, baseProbability+adj)
	} else {
		yes = max(minYesPrice, baseProbability-adj)
	}

	return domain.MarketState{
		Ticker:      strings.ToUpper(string(snap.Sport)) + "-" + snap.EventID,
		EventTicker: snap.EventID,
		Title:       snap.Away.Abbreviation + " @ " + snap.Home.Abbreviation,
		Status:      domain.MarketOpen,
		YesBid:      yes - quoteSpread,
		YesAsk:      yes,
		NoBid:       100 - yes - quoteSpread,
		NoAsk:       100 - yes,
	}
}

// Settle resolves sig against the final score. YES wins iff the home team
// won; a win pays 100¢ per contract.
func Settle(sig domain.TradeSignal, final domain.GameState) (domain.Outcome, int, int) {
	homeWon := final.HomeScore > final.AwayScore
	won := homeWon
	if sig.Side == domain.SideNo {
		won = !homeWon
	}

	entry := entryPrice(sig)
	if won {
		return domain.OutcomeWin, 100, (100 - entry) * sig.Size
	}
	return domain.OutcomeLoss, 0, -entry * sig.Size
}

func entryPrice(sig domain.TradeSignal) int {
	if sig.HasPrice() {
		return sig.Price
	}
	return defaultEntry
}

// groupByEvent keeps each event's snapshots in time order and the events in
// first-seen order.
func groupByEvent(snapshots []domain.GameState) ([]string, map[string][]domain.GameState) {
	var order []string
	events := make(map[string][]domain.GameState)
	for _, s := range snapshots {
		if _, seen := events[s.EventID]; !seen {
			order = append(order, s.EventID)
		}
		events[s.EventID] = append(events[s.EventID], s)
	}
	return order, events
}

func (r *Replayer) names() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name
	}
	return names
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
