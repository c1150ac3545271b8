package strategy

import "github.com/alejandrodnm/kalshibot/internal/domain"

// WindowParams configures a game-time filter. MaxClock nil means no clock bound.
type WindowParams struct {
	MinPeriod int
	MaxClock  *float64
}

// NewTimeWindow validates p and returns a time-window filter.
func NewTimeWindow(name string, p WindowParams) (Strategy, error) {
	if p.MinPeriod < 1 {
		return Strategy{}, invalid(name, "min_period must be a positive integer, got %d", p.MinPeriod)
	}
	if p.MaxClock != nil && *p.MaxClock < 0 {
		return Strategy{}, invalid(name, "max_clock must not be negative, got %v", *p.MaxClock)
	}
	return Strategy{Name: name, Kind: KindTimeWindow, Window: &p}, nil
}

func (p *WindowParams) admits(game domain.GameState) bool {
	if !game.IsLive() || game.Period < p.MinPeriod {
		return false
	}
	if p.MaxClock != nil && game.ClockSeconds > *p.MaxClock {
		return false
	}
	return true
}
