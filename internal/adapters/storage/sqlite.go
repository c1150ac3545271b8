package storage

// sqlite.go: persistencia del bot en SQLite (pure Go, sin CGo).
//
// Tablas:
//   - game_states: snapshots de partidos en juego. Es la fuente del backtest.
//   - market_snapshots: cotizaciones del mercado asociado a cada partido.
//   - trades / signals: journal de señales y su resultado (executed, dry_run, rejected, failed).
//   - daily_summary: roll-up diario generado por el scheduler.
//
// Los timestamps se guardan como TEXT UTC con milisegundos fijos, así el
// orden lexicográfico coincide con el cronológico y substr(ts,1,10) es la fecha.
// Cache en memoria: un partido que no cambió (marcador, periodo, reloj,
// estado) no se reescribe en el siguiente ciclo.

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_states (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp     TEXT    NOT NULL,
    event_id      TEXT    NOT NULL,
    sport         TEXT    NOT NULL,
    home_id       TEXT    NOT NULL DEFAULT '',
    home_team     TEXT    NOT NULL,
    home_name     TEXT    NOT NULL DEFAULT '',
    away_id       TEXT    NOT NULL DEFAULT '',
    away_team     TEXT    NOT NULL,
    away_name     TEXT    NOT NULL DEFAULT '',
    home_score    INTEGER NOT NULL,
    away_score    INTEGER NOT NULL,
    period        INTEGER NOT NULL,
    clock_seconds REAL    NOT NULL,
    status        TEXT    NOT NULL,
    margin        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS market_snapshots (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp     TEXT    NOT NULL,
    event_id      TEXT    NOT NULL,
    sport         TEXT    NOT NULL,
    ticker        TEXT    NOT NULL,
    event_ticker  TEXT    NOT NULL DEFAULT '',
    status        TEXT    NOT NULL,
    yes_bid       INTEGER NOT NULL,
    yes_ask       INTEGER NOT NULL,
    no_bid        INTEGER NOT NULL,
    no_ask        INTEGER NOT NULL,
    volume        INTEGER NOT NULL DEFAULT 0,
    open_interest INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS trades (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp     TEXT    NOT NULL,
    event_id      TEXT    NOT NULL,
    sport         TEXT    NOT NULL,
    matchup       TEXT    NOT NULL,
    ticker        TEXT    NOT NULL,
    signal_type   TEXT    NOT NULL,
    side          TEXT    NOT NULL,
    size          INTEGER NOT NULL,
    price         INTEGER,
    fill_price    INTEGER,
    status        TEXT    NOT NULL,
    strategy_name TEXT    NOT NULL,
    reason        TEXT    NOT NULL DEFAULT '',
    pnl           INTEGER
);

CREATE TABLE IF NOT EXISTS signals (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp     TEXT    NOT NULL,
    event_id      TEXT    NOT NULL,
    sport         TEXT    NOT NULL,
    matchup       TEXT    NOT NULL,
    ticker        TEXT    NOT NULL,
    signal_type   TEXT    NOT NULL,
    side          TEXT    NOT NULL,
    size          INTEGER NOT NULL,
    price         INTEGER,
    strategy_name TEXT    NOT NULL,
    reason        TEXT    NOT NULL DEFAULT '',
    was_executed  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS daily_summary (
    date           TEXT PRIMARY KEY,
    total_signals  INTEGER NOT NULL DEFAULT 0,
    total_trades   INTEGER NOT NULL DEFAULT 0,
    executed       INTEGER NOT NULL DEFAULT 0,
    dry_run        INTEGER NOT NULL DEFAULT 0,
    rejected       INTEGER NOT NULL DEFAULT 0,
    total_pnl      INTEGER NOT NULL DEFAULT 0,
    winning_trades INTEGER NOT NULL DEFAULT 0,
    losing_trades  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_games_ts       ON game_states(timestamp);
CREATE INDEX IF NOT EXISTS idx_games_event    ON game_states(event_id);
CREATE INDEX IF NOT EXISTS idx_games_sport    ON game_states(sport, timestamp);
CREATE INDEX IF NOT EXISTS idx_snap_ts        ON market_snapshots(timestamp);
CREATE INDEX IF NOT EXISTS idx_snap_ticker    ON market_snapshots(ticker);
CREATE INDEX IF NOT EXISTS idx_trades_ts      ON trades(timestamp);
CREATE INDEX IF NOT EXISTS idx_trades_strat   ON trades(strategy_name);
CREATE INDEX IF NOT EXISTS idx_trades_status  ON trades(status);
CREATE INDEX IF NOT EXISTS idx_signals_ts     ON signals(timestamp);
CREATE INDEX IF NOT EXISTS idx_signals_strat  ON signals(strategy_name);
`

const (
	timeLayout = "2006-01-02T15:04:05.000Z"
	dateLayout = "2006-01-02"

	retentionSnapshots = 90 * 24 * time.Hour  // cotizaciones: 90 días
	retentionGames     = 365 * 24 * time.Hour // partidos: un año de backtest
)

// gameKey es lo que decide si un snapshot de partido es nuevo.
type gameKey struct {
	home, away, period int
	clock              float64
	status             domain.GameStatus
}

// SQLiteStorage implementa los ports de persistencia sobre SQLite.
type SQLiteStorage struct {
	db    *sql.DB
	mu    sync.Mutex
	games map[string]gameKey // event_id → último estado escrito
	now   func() time.Time
}

var (
	_ ports.TradeStore     = (*SQLiteStorage)(nil)
	_ ports.SnapshotStore  = (*SQLiteStorage)(nil)
	_ ports.AnalyticsStore = (*SQLiteStorage)(nil)
)

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// el schema. No borra nada: la retención se aplica con Prune.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{
		db:    db,
		games: make(map[string]gameKey),
		now:   time.Now,
	}
	return s, nil
}

// Close cierra la conexión.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// ─── Game states ────────────────────────────────────────────────────────────

// InsertGameState guarda un snapshot. Si el partido no cambió desde el último
// snapshot escrito no hace nada.
func (s *SQLiteStorage) InsertGameState(ctx context.Context, g domain.GameState) error {
	key := gameKey{g.HomeScore, g.AwayScore, g.Period, g.ClockSeconds, g.Status}

	s.mu.Lock()
	prev, seen := s.games[g.EventID]
	s.mu.Unlock()
	if seen && prev == key {
		return nil
	}

	ts := g.ObservedAt
	if ts.IsZero() {
		ts = s.now()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO game_states
			(timestamp, event_id, sport, home_id, home_team, home_name, away_id, away_team, away_name,
			 home_score, away_score, period, clock_seconds, status, margin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(ts), g.EventID, string(g.Sport),
		g.Home.ID, g.Home.Abbreviation, g.Home.DisplayName,
		g.Away.ID, g.Away.Abbreviation, g.Away.DisplayName,
		g.HomeScore, g.AwayScore, g.Period, g.ClockSeconds, string(g.Status), g.Margin(),
	); err != nil {
		return fmt.Errorf("storage.InsertGameState: %s: %w", g.EventID, err)
	}

	s.mu.Lock()
	if g.IsFinal() {
		delete(s.games, g.EventID)
	} else {
		s.games[g.EventID] = key
	}
	s.mu.Unlock()
	return nil
}

// GameStates devuelve snapshots ordenados por timestamp (e id para empates).
func (s *SQLiteStorage) GameStates(ctx context.Context, q ports.GameStateQuery) ([]domain.GameState, error) {
	query := `
		SELECT timestamp, event_id, sport, home_id, home_team, home_name, away_id, away_team, away_name,
		       home_score, away_score, period, clock_seconds, status
		FROM game_states WHERE 1=1`
	var args []any
	if !q.From.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, formatTime(startOfDay(q.From)))
	}
	if !q.To.IsZero() {
		query += ` AND timestamp < ?`
		args = append(args, formatTime(startOfDay(q.To).AddDate(0, 0, 1)))
	}
	if q.Sport != "" {
		query += ` AND sport = ?`
		args = append(args, string(q.Sport))
	}
	query += ` ORDER BY timestamp ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.GameStates: query: %w", err)
	}
	defer rows.Close()

	var out []domain.GameState
	for rows.Next() {
		var (
			g             domain.GameState
			ts, sport, st string
		)
		if err := rows.Scan(&ts, &g.EventID, &sport,
			&g.Home.ID, &g.Home.Abbreviation, &g.Home.DisplayName,
			&g.Away.ID, &g.Away.Abbreviation, &g.Away.DisplayName,
			&g.HomeScore, &g.AwayScore, &g.Period, &g.ClockSeconds, &st,
		); err != nil {
			return nil, fmt.Errorf("storage.GameStates: scan: %w", err)
		}
		g.Sport = domain.Sport(sport)
		g.Status = domain.GameStatus(st)
		g.ObservedAt = parseTime(ts)
		out = append(out, g)
	}
	return out, rows.Err()
}

// ─── Market snapshots ───────────────────────────────────────────────────────

// InsertMarketSnapshot guarda la cotización de un mercado en el instante at.
func (s *SQLiteStorage) InsertMarketSnapshot(ctx context.Context, at time.Time, snap domain.MarketSnapshot) error {
	m := snap.Market
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO market_snapshots
			(timestamp, event_id, sport, ticker, event_ticker, status,
			 yes_bid, yes_ask, no_bid, no_ask, volume, open_interest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(at), snap.EventID, string(snap.Sport), m.Ticker, m.EventTicker, string(m.Status),
		m.YesBid, m.YesAsk, m.NoBid, m.NoAsk, m.Volume, m.OpenInterest,
	); err != nil {
		return fmt.Errorf("storage.InsertMarketSnapshot: %s: %w", m.Ticker, err)
	}
	return nil
}

// MarketSnapshots devuelve las cotizaciones guardadas de un ticker en orden.
func (s *SQLiteStorage) MarketSnapshots(ctx context.Context, ticker string) ([]domain.MarketSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, sport, ticker, event_ticker, status, yes_bid, yes_ask, no_bid, no_ask, volume, open_interest
		FROM market_snapshots WHERE ticker = ? ORDER BY timestamp ASC, id ASC`, ticker)
	if err != nil {
		return nil, fmt.Errorf("storage.MarketSnapshots: query: %w", err)
	}
	defer rows.Close()

	var out []domain.MarketSnapshot
	for rows.Next() {
		var (
			snap          domain.MarketSnapshot
			sport, status string
		)
		m := &snap.Market
		if err := rows.Scan(&snap.EventID, &sport, &m.Ticker, &m.EventTicker, &status,
			&m.YesBid, &m.YesAsk, &m.NoBid, &m.NoAsk, &m.Volume, &m.OpenInterest); err != nil {
			return nil, fmt.Errorf("storage.MarketSnapshots: scan: %w", err)
		}
		snap.Sport = domain.Sport(sport)
		m.Status = domain.MarketStatus(status)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// ─── Mantenimiento ──────────────────────────────────────────────────────────

// Prune borra snapshots fuera de retención y devuelve cuántas filas quitó.
// Solo lo llaman los modos que escriben (run, collect) y el scheduler.
func (s *SQLiteStorage) Prune(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	var total int64
	for _, p := range []struct {
		table string
		keep  time.Duration
	}{
		{"market_snapshots", retentionSnapshots},
		{"game_states", retentionGames},
	} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+p.table+` WHERE timestamp < ?`,
			formatTime(now.Add(-p.keep)))
		if err != nil {
			return total, fmt.Errorf("storage.Prune: %s: %w", p.table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if total > 0 {
		slog.Info("storage: pruned old snapshots", "rows", total)
	}
	return total, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
