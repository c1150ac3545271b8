package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/alejandrodnm/kalshibot/config"
	"github.com/alejandrodnm/kalshibot/internal/adapters/notify"
	"github.com/alejandrodnm/kalshibot/internal/adapters/storage"
	"github.com/alejandrodnm/kalshibot/internal/application/backtest"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/strategy"
)

const dateLayout = "2006-01-02"

type backtestFlags struct {
	from          string
	to            string
	sport         string
	only          string
	strategiesDir string
	asJSON        bool
}

func registerBacktestFlags(fs *flag.FlagSet) *backtestFlags {
	f := &backtestFlags{}
	fs.StringVar(&f.from, "from", "", "first day to replay, YYYY-MM-DD (default: earliest snapshot)")
	fs.StringVar(&f.to, "to", "", "last day to replay, inclusive, YYYY-MM-DD (default: latest snapshot)")
	fs.StringVar(&f.sport, "sport", "", "replay only this sport: nfl|nba|college-football")
	fs.StringVar(&f.only, "strategy", "", "replay only the named strategy")
	fs.StringVar(&f.strategiesDir, "strategies", "", "strategies directory (overrides config)")
	fs.BoolVar(&f.asJSON, "json", false, "print the result as JSON")
	return f
}

func (f *backtestFlags) rangeFor() (backtest.Range, error) {
	var rng backtest.Range
	var err error
	if f.from != "" {
		if rng.From, err = time.Parse(dateLayout, f.from); err != nil {
			return rng, fmt.Errorf("--from: %w", err)
		}
	}
	if f.to != "" {
		if rng.To, err = time.Parse(dateLayout, f.to); err != nil {
			return rng, fmt.Errorf("--to: %w", err)
		}
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return rng, fmt.Errorf("--to %s is before --from %s", f.to, f.from)
	}
	if f.sport != "" {
		if rng.Sport, err = domain.ParseSport(f.sport); err != nil {
			return rng, fmt.Errorf("--sport: %w", err)
		}
	}
	return rng, nil
}

func runBacktest(ctx context.Context, cfg *config.Config, f *backtestFlags) error {
	rng, err := f.rangeFor()
	if err != nil {
		return err
	}

	dir := cfg.Engine.StrategiesDir
	if f.strategiesDir != "" {
		dir = f.strategiesDir
	}
	strategies, err := loadStrategies(dir)
	if err != nil {
		return err
	}
	if f.only != "" {
		reg := strategy.NewRegistry(strategies...)
		s, ok := reg.Get(f.only)
		if !ok {
			return fmt.Errorf("strategy %q not found (have: %v)", f.only, reg.Names())
		}
		strategies = []strategy.Strategy{s}
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
	}
	defer store.Close()

	res, err := backtest.NewReplayer(store, strategies).Run(ctx, rng)
	if err != nil {
		return err
	}

	if f.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	notify.NewConsole(true).PrintBacktest(res)
	return nil
}
