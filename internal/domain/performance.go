package domain

// PerformanceSummary agrega el journal de trades para un filtro dado.
type PerformanceSummary struct {
	TotalTrades    int     `json:"total_trades"`
	ExecutedTrades int     `json:"executed_trades"`
	DryRunTrades   int     `json:"dry_run_trades"`
	RejectedTrades int     `json:"rejected_trades"`
	TotalPnL       int     `json:"total_pnl"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	AvgPnL         float64 `json:"avg_pnl"`
}

// WinRate es ganadores / ejecutados.
func (p PerformanceSummary) WinRate() float64 {
	if p.ExecutedTrades == 0 {
		return 0
	}
	return float64(p.WinningTrades) / float64(p.ExecutedTrades)
}

// GroupPerformance es el rendimiento de trades ejecutados por deporte o estrategia.
type GroupPerformance struct {
	Key           string `json:"key"`
	TotalTrades   int    `json:"total_trades"`
	TotalPnL      int    `json:"total_pnl"`
	WinningTrades int    `json:"winning_trades"`
}

// WinRate es ganadores / total del grupo.
func (g GroupPerformance) WinRate() float64 {
	if g.TotalTrades == 0 {
		return 0
	}
	return float64(g.WinningTrades) / float64(g.TotalTrades)
}

// DailyPnL es el P&L realizado de un día.
type DailyPnL struct {
	Date   string `json:"date"`
	Trades int    `json:"trades"`
	PnL    int    `json:"pnl"`
}

// DailySummary es una fila de la tabla daily_summary.
type DailySummary struct {
	Date          string `json:"date"`
	TotalSignals  int    `json:"total_signals"`
	TotalTrades   int    `json:"total_trades"`
	Executed      int    `json:"executed"`
	DryRun        int    `json:"dry_run"`
	Rejected      int    `json:"rejected"`
	TotalPnL      int    `json:"total_pnl"`
	WinningTrades int    `json:"winning_trades"`
	LosingTrades  int    `json:"losing_trades"`
}
