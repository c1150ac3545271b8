package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/alejandrodnm/kalshibot/config"
	"github.com/alejandrodnm/kalshibot/internal/adapters/espn"
	"github.com/alejandrodnm/kalshibot/internal/adapters/kalshi"
	"github.com/alejandrodnm/kalshibot/internal/application/collector"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

type collectFlags struct {
	interval   float64
	once       bool
	scoresOnly bool
	workers    int
}

func registerCollectFlags(fs *flag.FlagSet) *collectFlags {
	f := &collectFlags{}
	fs.Float64Var(&f.interval, "interval", 0, "collection interval in seconds (default: engine poll interval)")
	fs.BoolVar(&f.once, "once", false, "run one collection cycle and exit")
	fs.BoolVar(&f.scoresOnly, "scores-only", false, "record game states only, skip Kalshi markets")
	fs.IntVar(&f.workers, "workers", 0, "concurrent market fetches (overrides config)")
	return f
}

func runCollect(ctx context.Context, cfg *config.Config, f *collectFlags) error {
	store, err := openWritableStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var (
		resolver ports.MarketResolver
		markets  ports.MarketFeed
	)
	if !f.scoresOnly {
		// los datos de mercado son públicos: cliente sin firma
		client, err := kalshi.NewClient(kalshi.Config{
			Environment: cfg.Kalshi.Environment,
			BaseURL:     cfg.Kalshi.BaseURL,
		})
		if err != nil {
			return err
		}
		var closeCache func()
		resolver, closeCache = buildResolver(ctx, cfg, client)
		defer closeCache()
		markets = client
	}

	interval := cfg.PollInterval()
	if f.interval > 0 {
		interval = time.Duration(f.interval * float64(time.Second))
	}
	workers := cfg.Engine.Workers
	if f.workers > 0 {
		workers = f.workers
	}

	c := collector.New(collector.Config{
		Interval: interval,
		Workers:  workers,
		StopFile: cfg.Engine.StopFile,
	}, espn.NewClient(cfg.ESPN.BaseURL, cfg.Sports()), resolver, markets, store)

	if f.once {
		stats, err := c.RunOnce(ctx)
		if err != nil {
			return err
		}
		slog.Info("collect: done", "games", stats.Games, "markets", stats.Markets, "errors", stats.Errors)
		return nil
	}

	if cfg.Scheduler.Enabled {
		sched, err := startScheduler(ctx, cfg, store, nil)
		if err != nil {
			return err
		}
		defer sched.Stop()
	}
	return c.Run(ctx)
}
