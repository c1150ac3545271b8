package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

// ─── Rendimiento ────────────────────────────────────────────────────────────

// Performance resume el journal de trades con filtros opcionales.
func (s *SQLiteStorage) Performance(ctx context.Context, f ports.PerformanceFilter) (domain.PerformanceSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'executed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'dry_run'  THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(pnl), 0),
			COALESCE(SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pnl < 0 THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(pnl), 0)
		FROM trades WHERE 1=1`
	var args []any
	if f.Strategy != "" {
		query += ` AND strategy_name = ?`
		args = append(args, f.Strategy)
	}
	if !f.From.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, formatTime(startOfDay(f.From)))
	}
	if !f.To.IsZero() {
		query += ` AND timestamp < ?`
		args = append(args, formatTime(startOfDay(f.To).AddDate(0, 0, 1)))
	}

	var p domain.PerformanceSummary
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&p.TotalTrades, &p.ExecutedTrades, &p.DryRunTrades, &p.RejectedTrades,
		&p.TotalPnL, &p.WinningTrades, &p.LosingTrades, &p.AvgPnL,
	)
	if err != nil {
		return domain.PerformanceSummary{}, fmt.Errorf("storage.Performance: %w", err)
	}
	return p, nil
}

// PerformanceBySport agrupa los trades ejecutados por deporte.
func (s *SQLiteStorage) PerformanceBySport(ctx context.Context) ([]domain.GroupPerformance, error) {
	return s.groupPerformance(ctx, "sport")
}

// PerformanceByStrategy agrupa los trades ejecutados por estrategia.
func (s *SQLiteStorage) PerformanceByStrategy(ctx context.Context) ([]domain.GroupPerformance, error) {
	return s.groupPerformance(ctx, "strategy_name")
}

// column viene de las dos funciones de arriba, nunca del usuario.
func (s *SQLiteStorage) groupPerformance(ctx context.Context, column string) ([]domain.GroupPerformance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+column+`, COUNT(*), COALESCE(SUM(pnl), 0),
		       COALESCE(SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END), 0)
		FROM trades WHERE status = 'executed'
		GROUP BY `+column+` ORDER BY `+column)
	if err != nil {
		return nil, fmt.Errorf("storage.groupPerformance(%s): %w", column, err)
	}
	defer rows.Close()

	var out []domain.GroupPerformance
	for rows.Next() {
		var g domain.GroupPerformance
		if err := rows.Scan(&g.Key, &g.TotalTrades, &g.TotalPnL, &g.WinningTrades); err != nil {
			return nil, fmt.Errorf("storage.groupPerformance(%s): scan: %w", column, err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DailyPnL devuelve el P&L de trades ejecutados de los últimos days días.
func (s *SQLiteStorage) DailyPnL(ctx context.Context, days int) ([]domain.DailyPnL, error) {
	if days <= 0 {
		days = 30
	}
	since := startOfDay(s.now().UTC()).AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(timestamp, 1, 10) AS day, COUNT(*), COALESCE(SUM(pnl), 0)
		FROM trades
		WHERE status = 'executed' AND timestamp >= ?
		GROUP BY day ORDER BY day`, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("storage.DailyPnL: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyPnL
	for rows.Next() {
		var d domain.DailyPnL
		if err := rows.Scan(&d.Date, &d.Trades, &d.PnL); err != nil {
			return nil, fmt.Errorf("storage.DailyPnL: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SignalExecutionRate devuelve, por estrategia, la fracción de señales ejecutadas.
func (s *SQLiteStorage) SignalExecutionRate(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strategy_name, COUNT(*), COALESCE(SUM(was_executed), 0)
		FROM signals GROUP BY strategy_name`)
	if err != nil {
		return nil, fmt.Errorf("storage.SignalExecutionRate: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var (
			name            string
			total, executed int
		)
		if err := rows.Scan(&name, &total, &executed); err != nil {
			return nil, fmt.Errorf("storage.SignalExecutionRate: scan: %w", err)
		}
		if total > 0 {
			out[name] = float64(executed) / float64(total)
		}
	}
	return out, rows.Err()
}

// ─── Resumen diario ─────────────────────────────────────────────────────────

// RollupDailySummary recalcula la fila de daily_summary de la fecha dada.
// Es idempotente: volver a ejecutarla reemplaza la fila.
func (s *SQLiteStorage) RollupDailySummary(ctx context.Context, date time.Time) (domain.DailySummary, error) {
	from := startOfDay(date)
	to := from.AddDate(0, 0, 1)
	d := domain.DailySummary{Date: from.Format(dateLayout)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM signals WHERE timestamp >= ? AND timestamp < ?`,
		formatTime(from), formatTime(to)).Scan(&d.TotalSignals)
	if err != nil {
		return d, fmt.Errorf("storage.RollupDailySummary: signals: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'executed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'dry_run'  THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(pnl), 0),
			COALESCE(SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pnl < 0 THEN 1 ELSE 0 END), 0)
		FROM trades WHERE timestamp >= ? AND timestamp < ?`,
		formatTime(from), formatTime(to),
	).Scan(&d.TotalTrades, &d.Executed, &d.DryRun, &d.Rejected, &d.TotalPnL, &d.WinningTrades, &d.LosingTrades)
	if err != nil {
		return d, fmt.Errorf("storage.RollupDailySummary: trades: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_summary
			(date, total_signals, total_trades, executed, dry_run, rejected, total_pnl, winning_trades, losing_trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total_signals  = excluded.total_signals,
			total_trades   = excluded.total_trades,
			executed       = excluded.executed,
			dry_run        = excluded.dry_run,
			rejected       = excluded.rejected,
			total_pnl      = excluded.total_pnl,
			winning_trades = excluded.winning_trades,
			losing_trades  = excluded.losing_trades`,
		d.Date, d.TotalSignals, d.TotalTrades, d.Executed, d.DryRun, d.Rejected,
		d.TotalPnL, d.WinningTrades, d.LosingTrades,
	)
	if err != nil {
		return d, fmt.Errorf("storage.RollupDailySummary: upsert: %w", err)
	}
	return d, nil
}

// DailySummaries devuelve los últimos days resúmenes, del más antiguo al más reciente.
func (s *SQLiteStorage) DailySummaries(ctx context.Context, days int) ([]domain.DailySummary, error) {
	if days <= 0 {
		days = 30
	}
	since := startOfDay(s.now().UTC()).AddDate(0, 0, -days).Format(dateLayout)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, total_signals, total_trades, executed, dry_run, rejected, total_pnl, winning_trades, losing_trades
		FROM daily_summary WHERE date >= ? ORDER BY date`, since)
	if err != nil {
		return nil, fmt.Errorf("storage.DailySummaries: %w", err)
	}
	defer rows.Close()

	var out []domain.DailySummary
	for rows.Next() {
		var d domain.DailySummary
		if err := rows.Scan(&d.Date, &d.TotalSignals, &d.TotalTrades, &d.Executed, &d.DryRun,
			&d.Rejected, &d.TotalPnL, &d.WinningTrades, &d.LosingTrades); err != nil {
			return nil, fmt.Errorf("storage.DailySummaries: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

