package notify

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/kalshibot/internal/application/engine/live"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/risk"
)

// Console imprime ciclos, backtests y reportes en formato legible.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
// table=true imprime el detalle de cada ciclo además de la línea compacta.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Publish implementa ports.CyclePublisher para los resultados del loop.
func (c *Console) Publish(event any) {
	if r, ok := event.(*live.CycleResult); ok {
		c.PrintCycle(r)
	}
}

// PrintCycle imprime una línea por ciclo y, en modo tabla, las decisiones.
func (c *Console) PrintCycle(r *live.CycleResult) {
	if r == nil {
		return
	}
	ts := r.StartedAt.Format("15:04:05")
	if r.Skipped {
		fmt.Fprintf(c.out, "[%s] cycle skipped: %s\n", ts, r.SkipReason)
		return
	}

	mode := "LIVE"
	if r.DryRun {
		mode = "DRY"
	}
	fmt.Fprintf(c.out, "[%s] %s games:%d mkts:%d signals:%d blocked:%d resized:%d dry:%d exec:%d failed:%d (%s)\n",
		ts, mode, r.Games, r.Markets, r.Signals, r.Blocked, r.Resized, r.DryRuns, r.Executed, r.Failed,
		r.Duration.Round(time.Millisecond))

	if !c.table || len(r.Decisions) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Strategy", "Game", "Ticker", "Side", "Size", "Price", "Outcome", "Reason")
	for _, d := range r.Decisions {
		table.Append(
			d.Strategy,
			d.Matchup,
			d.Signal.Ticker,
			string(d.Signal.Side),
			fmt.Sprintf("%d", d.Signal.Size),
			priceLabel(d.Signal.Price),
			string(d.Status),
			compact(d.Note, 48),
		)
	}
	table.Render()
}

// PrintRisk imprime el estado del risk manager.
func (c *Console) PrintRisk(s risk.Summary) {
	fmt.Fprintf(c.out, "  risk: exposure %s | daily P&L %s | loss budget left %s | trades today %d",
		domain.Dollars(s.TotalExposure), domain.Dollars(s.DailyPnL),
		domain.Dollars(s.DailyLossRemaining), s.TradesToday)
	if s.IsDailyLimitReached {
		fmt.Fprint(c.out, " | DAILY LIMIT REACHED")
	}
	fmt.Fprintln(c.out)
}

// PrintBacktest imprime los trades simulados y el resumen.
func (c *Console) PrintBacktest(r domain.BacktestResult) {
	fmt.Fprintf(c.out, "\n=== BACKTEST %s → %s | strategies: %s ===\n",
		orDash(r.StartDate), orDash(r.EndDate), strings.Join(r.Strategies, ", "))

	if len(r.Trades) == 0 {
		fmt.Fprintln(c.out, "  no trades")
	} else {
		table := tablewriter.NewWriter(c.out)
		table.Header("Time", "Sport", "Game", "Strategy", "Side", "Size", "Entry", "Exit", "P&L", "Result")
		for _, t := range r.Trades {
			table.Append(
				t.Timestamp.UTC().Format("2006-01-02 15:04"),
				string(t.Sport),
				t.Matchup,
				t.Strategy,
				string(t.Side),
				fmt.Sprintf("%d", t.Size),
				fmt.Sprintf("%d¢", t.EntryPrice),
				fmt.Sprintf("%d¢", t.ExitPrice),
				domain.Dollars(t.PnL),
				strings.ToUpper(string(t.Outcome)),
			)
		}
		table.Render()
	}

	fmt.Fprintf(c.out, "  signals: %d | trades: %d | W/L: %d/%d | win rate: %.1f%% | total P&L: %s\n",
		r.TotalSignals, r.TotalTrades, r.WinningTrades, r.LosingTrades,
		r.WinRate()*100, r.TotalPnLDollars())
}

// Report agrupa lo que imprime el modo report.
type Report struct {
	Summary    domain.PerformanceSummary
	BySport    []domain.GroupPerformance
	ByStrategy []domain.GroupPerformance
	Daily      []domain.DailyPnL
	Recent     []domain.TradeEntry
	ExecRate   map[string]float64
}

// PrintReport imprime el reporte de rendimiento.
func (c *Console) PrintReport(r Report) {
	s := r.Summary
	fmt.Fprintln(c.out, "\n=== PERFORMANCE ===")
	fmt.Fprintf(c.out, "  trades: %d (executed %d, dry run %d, rejected %d)\n",
		s.TotalTrades, s.ExecutedTrades, s.DryRunTrades, s.RejectedTrades)
	fmt.Fprintf(c.out, "  P&L: %s | avg %s | W/L %d/%d | win rate %.1f%%\n",
		domain.Dollars(s.TotalPnL), domain.CentsToDollars(int(s.AvgPnL)).StringFixed(2),
		s.WinningTrades, s.LosingTrades, s.WinRate()*100)

	c.printGroups("Strategy", r.ByStrategy, r.ExecRate)
	c.printGroups("Sport", r.BySport, nil)

	if len(r.Daily) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("Date", "Trades", "P&L")
		for _, d := range r.Daily {
			table.Append(d.Date, fmt.Sprintf("%d", d.Trades), domain.Dollars(d.PnL))
		}
		table.Render()
	}

	if len(r.Recent) > 0 {
		fmt.Fprintln(c.out, "\n  Recent trades")
		table := tablewriter.NewWriter(c.out)
		table.Header("Time", "Game", "Strategy", "Ticker", "Side", "Size", "Price", "Status", "P&L")
		for _, t := range r.Recent {
			table.Append(
				t.Timestamp.UTC().Format("01-02 15:04"),
				t.Matchup,
				t.Strategy,
				t.Ticker,
				string(t.Side),
				fmt.Sprintf("%d", t.Size),
				priceLabel(t.Price),
				string(t.Status),
				domain.Dollars(t.PnL),
			)
		}
		table.Render()
	}
}

func (c *Console) printGroups(label string, groups []domain.GroupPerformance, rates map[string]float64) {
	if len(groups) == 0 {
		return
	}
	sorted := append([]domain.GroupPerformance(nil), groups...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalPnL > sorted[j].TotalPnL })

	table := tablewriter.NewWriter(c.out)
	header := []any{label, "Trades", "P&L", "Win rate"}
	if rates != nil {
		header = append(header, "Exec rate")
	}
	table.Header(header...)
	for _, g := range sorted {
		row := []any{g.Key, fmt.Sprintf("%d", g.TotalTrades), domain.Dollars(g.TotalPnL), fmt.Sprintf("%.1f%%", g.WinRate()*100)}
		if rates != nil {
			row = append(row, fmt.Sprintf("%.1f%%", rates[g.Key]*100))
		}
		table.Append(row...)
	}
	table.Render()
}

func priceLabel(cents int) string {
	if cents == 0 {
		return "mkt"
	}
	return fmt.Sprintf("%d¢", cents)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// compact recorta s a max runas.
func compact(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
