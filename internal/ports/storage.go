package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// TradeStore persiste lo que produce el loop en vivo.
type TradeStore interface {
	InsertGameState(ctx context.Context, game domain.GameState) error
	InsertMarketSnapshot(ctx context.Context, at time.Time, snap domain.MarketSnapshot) error
	InsertSignal(ctx context.Context, sig domain.TradeSignal, tc domain.TradeContext, executed bool) (int64, error)
	InsertTrade(ctx context.Context, entry domain.TradeEntry) (int64, error)
}

// GameStateQuery filtra snapshots históricos. From/To cero = sin límite;
// To es inclusivo a nivel de día.
type GameStateQuery struct {
	From  time.Time
	To    time.Time
	Sport domain.Sport
}

// SnapshotStore devuelve snapshots ordenados por timestamp para el backtest.
type SnapshotStore interface {
	GameStates(ctx context.Context, q GameStateQuery) ([]domain.GameState, error)
}

// PerformanceFilter acota el resumen de rendimiento.
type PerformanceFilter struct {
	Strategy string
	From     time.Time
	To       time.Time
}

// AnalyticsStore expone las consultas de reporting.
type AnalyticsStore interface {
	RecentTrades(ctx context.Context, limit int) ([]domain.TradeEntry, error)
	Performance(ctx context.Context, f PerformanceFilter) (domain.PerformanceSummary, error)
	PerformanceBySport(ctx context.Context) ([]domain.GroupPerformance, error)
	PerformanceByStrategy(ctx context.Context) ([]domain.GroupPerformance, error)
	DailyPnL(ctx context.Context, days int) ([]domain.DailyPnL, error)
	SignalExecutionRate(ctx context.Context) (map[string]float64, error)
	RollupDailySummary(ctx context.Context, date time.Time) (domain.DailySummary, error)
	DailySummaries(ctx context.Context, days int) ([]domain.DailySummary, error)
}
