// Package risk gates trade signals against position, exposure and daily
// loss limits and keeps the per-day trading state.
package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Limits are the hard caps. Amounts in cents.
type Limits struct {
	MaxPositionSize      int
	MaxDailyLoss         int
	MaxExposurePerMarket int
	MaxTotalExposure     int
}

// DefaultLimits: 100 contracts, $500/day, $200/market, $1000 total.
func DefaultLimits() Limits {
	return Limits{
		MaxPositionSize:      100,
		MaxDailyLoss:         50000,
		MaxExposurePerMarket: 20000,
		MaxTotalExposure:     100000,
	}
}

// Validate rejects non-positive limits.
func (l Limits) Validate() error {
	switch {
	case l.MaxPositionSize <= 0:
		return fmt.Errorf("risk: max_position_size must be positive, got %d", l.MaxPositionSize)
	case l.MaxDailyLoss <= 0:
		return fmt.Errorf("risk: max_daily_loss must be positive, got %d", l.MaxDailyLoss)
	case l.MaxExposurePerMarket <= 0:
		return fmt.Errorf("risk: max_exposure_per_market must be positive, got %d", l.MaxExposurePerMarket)
	case l.MaxTotalExposure <= 0:
		return fmt.Errorf("risk: max_total_exposure must be positive, got %d", l.MaxTotalExposure)
	}
	return nil
}

// State is the mutable trading state. TradeDate is midnight of the current
// trading day in the manager's clock location.
type State struct {
	Positions map[string]int
	Exposure  map[string]int
	DailyPnL  int
	TradeDate time.Time
	Trades    []domain.TradeRecord
}

// TotalExposure sums exposure across tickers.
func (s State) TotalExposure() int {
	total := 0
	for _, e := range s.Exposure {
		total += e
	}
	return total
}

func (s State) clone() State {
	out := State{
		Positions: make(map[string]int, len(s.Positions)),
		Exposure:  make(map[string]int, len(s.Exposure)),
		DailyPnL:  s.DailyPnL,
		TradeDate: s.TradeDate,
		Trades:    append([]domain.TradeRecord(nil), s.Trades...),
	}
	for k, v := range s.Positions {
		out.Positions[k] = v
	}
	for k, v := range s.Exposure {
		out.Exposure[k] = v
	}
	return out
}

// Summary is a read-only view for reporting.
type Summary struct {
	Positions           map[string]int `json:"positions"`
	TotalExposure       int            `json:"total_exposure"`
	DailyPnL            int            `json:"daily_pnl"`
	DailyLossRemaining  int            `json:"daily_loss_remaining"`
	TradesToday         int            `json:"trades_today"`
	IsDailyLimitReached bool           `json:"is_daily_limit_reached"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now as the source of the calendar date.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager owns the risk state. Methods are safe for concurrent use; the
// live loop is the only writer, readers are reporting surfaces.
type Manager struct {
	mu     sync.Mutex
	limits Limits
	state  State
	now    func() time.Time
}

// NewManager validates limits and starts a fresh trading day.
func NewManager(limits Limits, opts ...Option) (*Manager, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{limits: limits, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.state = State{
		Positions: make(map[string]int),
		Exposure:  make(map[string]int),
		TradeDate: midnight(m.now()),
	}
	return m, nil
}

// Limits returns the configured limits.
func (m *Manager) Limits() Limits {
	return m.limits
}

// ResetDaily clears daily P&L and the trade log when the calendar date moved.
// Positions and exposure carry over.
func (m *Manager) ResetDaily() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked()
}

func (m *Manager) resetDailyLocked() {
	today := midnight(m.now())
	if today.Equal(m.state.TradeDate) {
		return
	}
	m.state.DailyPnL = 0
	m.state.Trades = nil
	m.state.TradeDate = today
}

// CanTrade reports whether sig passes every limit.
func (m *Manager) CanTrade(sig domain.TradeSignal) bool {
	ok, _ := m.CheckTrade(sig)
	return ok
}

// CheckTrade is CanTrade plus the reason for a rejection.
func (m *Manager) CheckTrade(sig domain.TradeSignal) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked()

	if m.state.DailyPnL <= -m.limits.MaxDailyLoss {
		return false, fmt.Sprintf("daily loss limit reached (%s)", domain.Dollars(m.state.DailyPnL))
	}

	// size is added regardless of kind
	next := abs(m.state.Positions[sig.Ticker] + sig.Size)
	if next > m.limits.MaxPositionSize {
		return false, fmt.Sprintf("position %d would exceed max %d", next, m.limits.MaxPositionSize)
	}

	if sig.HasPrice() {
		cost := sig.Size * sig.Price
		if m.state.Exposure[sig.Ticker]+cost > m.limits.MaxExposurePerMarket {
			return false, fmt.Sprintf("market exposure would exceed %s", domain.Dollars(m.limits.MaxExposurePerMarket))
		}
		if m.state.TotalExposure()+cost > m.limits.MaxTotalExposure {
			return false, fmt.Sprintf("total exposure would exceed %s", domain.Dollars(m.limits.MaxTotalExposure))
		}
	}
	return true, ""
}

// MaxAllowedSize is the remaining position headroom for ticker.
func (m *Manager) MaxAllowedSize(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxAllowedLocked(ticker)
}

func (m *Manager) maxAllowedLocked(ticker string) int {
	return max(0, m.limits.MaxPositionSize-abs(m.state.Positions[ticker]))
}

// AdjustSignal caps sig.Size to the position headroom. The input is not
// modified; a reduced copy carries a note in its reason.
func (m *Manager) AdjustSignal(sig domain.TradeSignal) domain.TradeSignal {
	m.mu.Lock()
	allowed := m.maxAllowedLocked(sig.Ticker)
	m.mu.Unlock()

	if sig.Size <= allowed {
		return sig
	}
	return sig.WithSize(allowed, fmt.Sprintf("reduced from %d to %d", sig.Size, allowed))
}

// RecordTrade applies a fill: position moves by size (buy up, sell down),
// exposure grows by size*fillPrice and realizedPnL accrues to the day.
func (m *Manager) RecordTrade(sig domain.TradeSignal, fillPrice, realizedPnL int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked()

	delta := sig.Size
	if sig.Kind != domain.SignalBuy {
		delta = -sig.Size
	}
	m.state.Positions[sig.Ticker] += delta
	m.state.Exposure[sig.Ticker] += sig.Size * fillPrice
	m.state.DailyPnL += realizedPnL

	m.state.Trades = append(m.state.Trades, domain.TradeRecord{
		Timestamp: sig.Timestamp,
		Ticker:    sig.Ticker,
		Side:      sig.Side,
		Action:    sig.Kind,
		Size:      sig.Size,
		Price:     fillPrice,
		PnL:       realizedPnL,
	})
}

// UpdatePosition overwrites local state with the exchange's view.
func (m *Manager) UpdatePosition(pos domain.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Positions[pos.Ticker] = pos.Position
	m.state.Exposure[pos.Ticker] = pos.MarketExposure
}

// DailyLossRemaining is MaxDailyLoss + DailyPnL.
func (m *Manager) DailyLossRemaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked()
	return m.limits.MaxDailyLoss + m.state.DailyPnL
}

// IsDailyLimitReached reports whether the loss budget is exhausted.
func (m *Manager) IsDailyLimitReached() bool {
	return m.DailyLossRemaining() <= 0
}

// TotalExposure sums exposure across tickers.
func (m *Manager) TotalExposure() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.TotalExposure()
}

// State returns a deep copy of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Summary returns the reporting view.
func (m *Manager) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked()

	remaining := m.limits.MaxDailyLoss + m.state.DailyPnL
	positions := make(map[string]int, len(m.state.Positions))
	for k, v := range m.state.Positions {
		positions[k] = v
	}
	return Summary{
		Positions:           positions,
		TotalExposure:       m.state.TotalExposure(),
		DailyPnL:            m.state.DailyPnL,
		DailyLossRemaining:  remaining,
		TradesToday:         len(m.state.Trades),
		IsDailyLimitReached: remaining <= 0,
	}
}

func midnight(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
