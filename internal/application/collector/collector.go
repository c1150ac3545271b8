// Package collector graba snapshots de partidos en vivo y de sus mercados para
// alimentar el backtest, sin evaluar estrategias.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

const DefaultInterval = 30 * time.Second

// Config contiene la configuración del collector.
type Config struct {
	Interval time.Duration
	Workers  int    // goroutines para resolver mercados (0 = NumCPU*2)
	StopFile string // si existe, Run termina en el siguiente tick
}

// Stats resume un ciclo de recolección.
type Stats struct {
	Games   int
	Markets int
	Errors  int
}

// Collector es el loop de recolección.
type Collector struct {
	cfg      Config
	scores   ports.ScoreFeed
	resolver ports.MarketResolver
	markets  ports.MarketFeed
	store    ports.TradeStore
}

// New crea un Collector. resolver y markets pueden ser nil: entonces solo se
// graban los marcadores.
func New(cfg Config, scores ports.ScoreFeed, resolver ports.MarketResolver, markets ports.MarketFeed, store ports.TradeStore) *Collector {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Collector{cfg: cfg, scores: scores, resolver: resolver, markets: markets, store: store}
}

// Run ejecuta ciclos hasta que el contexto se cancele. El primero es inmediato.
func (c *Collector) Run(ctx context.Context) error {
	slog.Info("collector starting", "interval", c.cfg.Interval, "workers", c.cfg.Workers)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		if c.stopRequested() {
			slog.Info("collector: stop file found", "file", c.cfg.StopFile)
			return nil
		}
		if _, err := c.RunOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Error("collect cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("collector stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce graba todos los partidos en vivo y, si hay mercado, su cotización.
func (c *Collector) RunOnce(ctx context.Context) (Stats, error) {
	start := time.Now()

	bySport, err := c.scores.FetchLiveGames(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("collector.RunOnce: fetch live games: %w", err)
	}

	var games []domain.GameState
	for _, sport := range domain.Sports() {
		games = append(games, bySport[sport]...)
	}

	var stats Stats
	for _, g := range games {
		if err := c.store.InsertGameState(ctx, g); err != nil {
			slog.Warn("collector: save game state", "event", g.EventID, "err", err)
			stats.Errors++
			continue
		}
		stats.Games++
	}

	if c.resolver != nil && c.markets != nil && len(games) > 0 {
		snaps, failed := fetchSnapshotsConcurrent(ctx, c.resolver, c.markets, games, c.cfg.Workers)
		stats.Errors += failed
		for _, s := range snaps {
			if err := c.store.InsertMarketSnapshot(ctx, s.at, s.snap); err != nil {
				slog.Warn("collector: save market snapshot", "ticker", s.snap.Market.Ticker, "err", err)
				stats.Errors++
				continue
			}
			stats.Markets++
		}
	}

	slog.Info("collect cycle complete",
		"games", stats.Games,
		"markets", stats.Markets,
		"errors", stats.Errors,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return stats, nil
}

func (c *Collector) stopRequested() bool {
	if c.cfg.StopFile == "" {
		return false
	}
	_, err := os.Stat(c.cfg.StopFile)
	return err == nil
}

// isMiss distingue "no hay mercado" de un fallo real.
func isMiss(err error) bool {
	return errors.Is(err, domain.ErrNoMarket)
}
