package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// ─── Journal ────────────────────────────────────────────────────────────────

// InsertSignal registra una señal accionable y si llegó a ejecutarse.
func (s *SQLiteStorage) InsertSignal(ctx context.Context, sig domain.TradeSignal, tc domain.TradeContext, executed bool) (int64, error) {
	ts := sig.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO signals
			(timestamp, event_id, sport, matchup, ticker, signal_type, side, size, price,
			 strategy_name, reason, was_executed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(ts), tc.EventID, string(tc.Sport), tc.Matchup, sig.Ticker,
		string(sig.Kind), string(sig.Side), sig.Size, nullInt(sig.Price),
		tc.Strategy, sig.Reason, boolToInt(executed),
	)
	if err != nil {
		return 0, fmt.Errorf("storage.InsertSignal: %w", err)
	}
	return res.LastInsertId()
}

// InsertTrade registra el resultado de una señal. Price, FillPrice y PnL a 0
// se guardan como NULL (sin precio / sin fill / sin P&L realizado).
func (s *SQLiteStorage) InsertTrade(ctx context.Context, e domain.TradeEntry) (int64, error) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(timestamp, event_id, sport, matchup, ticker, signal_type, side, size, price,
			 fill_price, status, strategy_name, reason, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(ts), e.EventID, string(e.Sport), e.Matchup, e.Ticker,
		string(e.Kind), string(e.Side), e.Size, nullInt(e.Price),
		nullInt(e.FillPrice), string(e.Status), e.Strategy, e.Reason, nullInt(e.PnL),
	)
	if err != nil {
		return 0, fmt.Errorf("storage.InsertTrade: %w", err)
	}
	return res.LastInsertId()
}

// RecentTrades devuelve los últimos limit trades, más recientes primero.
func (s *SQLiteStorage) RecentTrades(ctx context.Context, limit int) ([]domain.TradeEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, event_id, sport, matchup, ticker, signal_type, side, size,
		       price, fill_price, status, strategy_name, reason, pnl
		FROM trades ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentTrades: query: %w", err)
	}
	defer rows.Close()

	var out []domain.TradeEntry
	for rows.Next() {
		var (
			e                        domain.TradeEntry
			ts, sport, kind, side, st string
			price, fill, pnl         sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &ts, &e.EventID, &sport, &e.Matchup, &e.Ticker, &kind, &side,
			&e.Size, &price, &fill, &st, &e.Strategy, &e.Reason, &pnl); err != nil {
			return nil, fmt.Errorf("storage.RecentTrades: scan: %w", err)
		}
		e.Timestamp = parseTime(ts)
		e.Sport = domain.Sport(sport)
		e.Kind = domain.SignalKind(kind)
		e.Side = domain.Side(side)
		e.Status = domain.TradeStatus(st)
		e.Price = int(price.Int64)
		e.FillPrice = int(fill.Int64)
		e.PnL = int(pnl.Int64)
		out = append(out, e)
	}
	return out, rows.Err()
}

// SettleTrade fija el P&L realizado de un trade ejecutado.
func (s *SQLiteStorage) SettleTrade(ctx context.Context, id int64, pnl int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE trades SET pnl = ? WHERE id = ?`, pnl, id)
	if err != nil {
		return fmt.Errorf("storage.SettleTrade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.SettleTrade: trade %d not found", id)
	}
	return nil
}
