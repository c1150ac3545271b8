// Package strategy evaluates game and market state into trade signals.
//
// A Strategy is a tagged variant: Kind selects which parameter block is set.
// Composites hold child strategies and branch on each child's Kind, so a
// time-window child acts as a gate while the others produce signals.
package strategy

import (
	"errors"
	"fmt"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// ErrInvalidConfig wraps every construction-time validation failure.
var ErrInvalidConfig = errors.New("invalid strategy config")

// Kind tags the variant.
type Kind int

const (
	KindMargin Kind = iota + 1
	KindTimeWindow
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindMargin:
		return "score_margin"
	case KindTimeWindow:
		return "game_time"
	case KindComposite:
		return "composite"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Strategy is a named, validated rule. Build it with NewMargin,
// NewTimeWindow or NewComposite.
type Strategy struct {
	Name string
	Kind Kind
	// Sports restricts the strategy to these sports. Empty means all.
	Sports []domain.Sport

	Margin    *MarginParams
	Window    *WindowParams
	Composite *CompositeParams
}

// Evaluate returns the signal the strategy produces for this state, if any.
func (s Strategy) Evaluate(game domain.GameState, market domain.MarketState, pos *domain.Position) (domain.TradeSignal, bool) {
	switch s.Kind {
	case KindMargin:
		return s.Margin.evaluate(game, market)
	case KindComposite:
		return s.Composite.evaluate(game, market, pos)
	default:
		// time windows only gate
		return domain.TradeSignal{}, false
	}
}

// IsTimeValid reports whether a time-window strategy admits the game.
// Always false for other kinds.
func (s Strategy) IsTimeValid(game domain.GameState) bool {
	if s.Kind != KindTimeWindow || s.Window == nil {
		return false
	}
	return s.Window.admits(game)
}

// AppliesTo reports whether the strategy targets the sport.
func (s Strategy) AppliesTo(sport domain.Sport) bool {
	if len(s.Sports) == 0 {
		return true
	}
	for _, sp := range s.Sports {
		if sp == sport {
			return true
		}
	}
	return false
}

// WithSports returns a copy restricted to the given sports.
func (s Strategy) WithSports(sports ...domain.Sport) Strategy {
	s.Sports = append([]domain.Sport(nil), sports...)
	return s
}

func invalid(name, format string, args ...any) error {
	return fmt.Errorf("strategy %q: %s: %w", name, fmt.Sprintf(format, args...), ErrInvalidConfig)
}
