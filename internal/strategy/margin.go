package strategy

import (
	"fmt"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Direction selects whether the margin strategy follows the leader or the
// trailing team, always from the home team's perspective.
type Direction string

const (
	DirectionLeading  Direction = "leading"
	DirectionTrailing Direction = "trailing"
)

// MarginParams configures a score-margin strategy.
type MarginParams struct {
	MinMargin   int
	Direction   Direction
	Side        domain.Side
	Size        int
	LimitOffset int
}

// DefaultMarginParams returns leading/yes/10 contracts/+2 cents.
func DefaultMarginParams(minMargin int) MarginParams {
	return MarginParams{
		MinMargin:   minMargin,
		Direction:   DirectionLeading,
		Side:        domain.SideYes,
		Size:        10,
		LimitOffset: 2,
	}
}

// NewMargin validates p and returns a margin strategy.
func NewMargin(name string, p MarginParams) (Strategy, error) {
	if p.MinMargin < 1 {
		return Strategy{}, invalid(name, "min_margin must be a positive integer, got %d", p.MinMargin)
	}
	if p.Direction != DirectionLeading && p.Direction != DirectionTrailing {
		return Strategy{}, invalid(name, "direction must be 'leading' or 'trailing', got %q", p.Direction)
	}
	if p.Side != domain.SideYes && p.Side != domain.SideNo {
		return Strategy{}, invalid(name, "side must be 'yes' or 'no', got %q", p.Side)
	}
	if p.Size < 0 {
		return Strategy{}, invalid(name, "size must not be negative, got %d", p.Size)
	}
	return Strategy{Name: name, Kind: KindMargin, Margin: &p}, nil
}

func (p *MarginParams) evaluate(game domain.GameState, market domain.MarketState) (domain.TradeSignal, bool) {
	if !game.IsLive() || !market.IsOpen() {
		return domain.TradeSignal{}, false
	}

	margin := game.Margin()
	abs := margin
	if abs < 0 {
		abs = -abs
	}
	if abs < p.MinMargin {
		return domain.TradeSignal{}, false
	}

	switch p.Direction {
	case DirectionLeading:
		if !game.HomeLeading() {
			return domain.TradeSignal{}, false
		}
	case DirectionTrailing:
		if game.HomeLeading() {
			return domain.TradeSignal{}, false
		}
	}

	return domain.TradeSignal{
		Kind:      domain.SignalBuy,
		Ticker:    market.Ticker,
		Side:      p.Side,
		Size:      p.Size,
		Price:     market.AskFor(p.Side) + p.LimitOffset,
		Reason:    fmt.Sprintf("Margin %d exceeds threshold %d (%s)", abs, p.MinMargin, p.Direction),
		Timestamp: game.ObservedAt,
	}, true
}
