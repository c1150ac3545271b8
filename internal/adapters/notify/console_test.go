package notify_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kalshibot/internal/adapters/notify"
	"github.com/alejandrodnm/kalshibot/internal/application/engine/live"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/risk"
)

func TestConsole_PrintCycle_Compact(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	c.PrintCycle(&live.CycleResult{
		StartedAt: time.Date(2024, 1, 21, 21, 5, 9, 0, time.UTC),
		DryRun:    true,
		Games:     3, Markets: 2, Signals: 1, DryRuns: 1,
		Duration:  1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "[21:05:09] DRY")
	assert.Contains(t, out, "games:3 mkts:2 signals:1")
	assert.Contains(t, out, "dry:1")
}

func TestConsole_PrintCycle_Skipped(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	c.PrintCycle(&live.CycleResult{Skipped: true, SkipReason: "daily loss limit reached (-$500.00)"})

	assert.Contains(t, buf.String(), "cycle skipped: daily loss limit reached (-$500.00)")
}

func TestConsole_Publish_TableMode(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	c.Publish(&live.CycleResult{
		Signals: 1, Executed: 1,
		Decisions: []live.Decision{{
			Strategy: "nfl_blowout",
			Matchup:  "KC@BUF",
			Signal:   domain.TradeSignal{Kind: domain.SignalBuy, Ticker: "KXNFL-BUF-KC", Side: domain.SideYes, Size: 10, Price: 64},
			Status:   domain.TradeExecuted,
		}},
	})
	// other events are ignored
	c.Publish("not a cycle")

	out := buf.String()
	assert.Contains(t, out, "nfl_blowout")
	assert.Contains(t, out, "KXNFL-BUF-KC")
	assert.Contains(t, out, "64¢")
	assert.Contains(t, out, "executed")
}

func TestConsole_PrintBacktest(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	c.PrintBacktest(domain.BacktestResult{
		StartDate:     "2024-01-01",
		EndDate:       "2024-01-31",
		Strategies:    []string{"nfl_blowout"},
		TotalSignals:  2,
		TotalTrades:   2,
		WinningTrades: 1,
		LosingTrades:  1,
		TotalPnL:      -100,
		Trades: []domain.BacktestTrade{
			{Timestamp: time.Now(), Sport: domain.SportNFL, Matchup: "KC@BUF", Strategy: "nfl_blowout",
				Side: domain.SideYes, Size: 10, EntryPrice: 71, ExitPrice: 100, PnL: 290, Outcome: domain.OutcomeWin},
			{Timestamp: time.Now(), Sport: domain.SportNFL, Matchup: "DAL@PHI", Strategy: "nfl_blowout",
				Side: domain.SideYes, Size: 10, EntryPrice: 39, ExitPrice: 0, PnL: -390, Outcome: domain.OutcomeLoss},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "2024-01-01 → 2024-01-31")
	assert.Contains(t, out, "KC@BUF")
	assert.Contains(t, out, "$2.90")
	assert.Contains(t, out, "-$3.90")
	assert.Contains(t, out, "win rate: 50.0%")
	assert.Contains(t, out, "total P&L: -$1.00")
}

func TestConsole_PrintBacktest_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, false).PrintBacktest(domain.BacktestResult{})

	out := buf.String()
	assert.Contains(t, out, "no trades")
	assert.Contains(t, out, "win rate: 0.0%")
}

func TestConsole_PrintReport(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	c.PrintReport(notify.Report{
		Summary: domain.PerformanceSummary{TotalTrades: 4, ExecutedTrades: 2, DryRunTrades: 1, RejectedTrades: 1,
			TotalPnL: 1250, WinningTrades: 1, LosingTrades: 1, AvgPnL: 625},
		ByStrategy: []domain.GroupPerformance{
			{Key: "nba_comeback", TotalTrades: 1, TotalPnL: -300},
			{Key: "nfl_blowout", TotalTrades: 1, TotalPnL: 1550, WinningTrades: 1},
		},
		BySport:  []domain.GroupPerformance{{Key: "nfl", TotalTrades: 2, TotalPnL: 1250, WinningTrades: 1}},
		Daily:    []domain.DailyPnL{{Date: "2024-01-21", Trades: 2, PnL: 1250}},
		ExecRate: map[string]float64{"nfl_blowout": 0.5},
		Recent: []domain.TradeEntry{{
			Timestamp:    time.Date(2024, 1, 21, 22, 0, 0, 0, time.UTC),
			TradeContext: domain.TradeContext{Matchup: "KC@BUF", Strategy: "nfl_blowout"},
			Ticker:       "KXNFL-BUF-KC", Side: domain.SideYes, Size: 10, Status: domain.TradeExecuted,
		}},
	})

	out := buf.String()
	require.Contains(t, out, "PERFORMANCE")
	assert.Contains(t, out, "P&L: $12.50")
	assert.Contains(t, out, "avg 6.25")
	assert.Contains(t, out, "win rate 50.0%")
	assert.Contains(t, out, "nfl_blowout")
	assert.Contains(t, out, "2024-01-21")
	assert.Contains(t, out, "Recent trades")
	assert.Contains(t, out, "mkt")
	// best strategy listed first
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("nfl_blowout")), bytes.Index(buf.Bytes(), []byte("nba_comeback")))
}

func TestConsole_PrintRisk(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, false).PrintRisk(risk.Summary{
		TotalExposure: 640, DailyPnL: -50000, DailyLossRemaining: 0, IsDailyLimitReached: true,
	})

	out := buf.String()
	assert.Contains(t, out, "exposure $6.40")
	assert.Contains(t, out, "DAILY LIMIT REACHED")
}
