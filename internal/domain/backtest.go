package domain

import "time"

// Outcome is the settled result of a simulated trade.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// BacktestTrade is one simulated entry settled against the final score.
type BacktestTrade struct {
	Timestamp  time.Time  `json:"timestamp"`
	EventID    string     `json:"event_id"`
	Sport      Sport      `json:"sport"`
	Matchup    string     `json:"matchup"`
	Strategy   string     `json:"strategy"`
	Signal     SignalKind `json:"signal"`
	Side       Side       `json:"side"`
	Size       int        `json:"size"`
	EntryPrice int        `json:"entry_price"`
	ExitPrice  int        `json:"exit_price"`
	PnL        int        `json:"pnl"`
	Outcome    Outcome    `json:"outcome"`
}

// BacktestResult aggregates a replay over a date range.
type BacktestResult struct {
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Strategies    []string        `json:"strategies"`
	TotalSignals  int             `json:"total_signals"`
	TotalTrades   int             `json:"total_trades"`
	WinningTrades int             `json:"winning_trades"`
	LosingTrades  int             `json:"losing_trades"`
	TotalPnL      int             `json:"total_pnl"`
	Trades        []BacktestTrade `json:"trades"`
}

// WinRate is winning/total trades, 0 when nothing traded.
func (r BacktestResult) WinRate() float64 {
	if r.TotalTrades == 0 {
		return 0
	}
	return float64(r.WinningTrades) / float64(r.TotalTrades)
}

// TotalPnLDollars renders the total P&L in dollars.
func (r BacktestResult) TotalPnLDollars() string {
	return Dollars(r.TotalPnL)
}
