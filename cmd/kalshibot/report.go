package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/alejandrodnm/kalshibot/config"
	"github.com/alejandrodnm/kalshibot/internal/adapters/notify"
	"github.com/alejandrodnm/kalshibot/internal/adapters/storage"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

type reportFlags struct {
	days     int
	limit    int
	strategy string
}

func registerReportFlags(fs *flag.FlagSet) *reportFlags {
	f := &reportFlags{}
	fs.IntVar(&f.days, "days", 7, "days of daily P&L and summary window")
	fs.IntVar(&f.limit, "limit", 20, "recent trades to list")
	fs.StringVar(&f.strategy, "strategy", "", "restrict the summary to one strategy")
	return f
}

func runReport(ctx context.Context, cfg *config.Config, f *reportFlags) error {
	if f.days <= 0 || f.limit <= 0 {
		return errors.New("--days and --limit must be positive")
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
	}
	defer store.Close()

	var r notify.Report
	from := time.Now().UTC().AddDate(0, 0, -f.days)
	if r.Summary, err = store.Performance(ctx, ports.PerformanceFilter{Strategy: f.strategy, From: from}); err != nil {
		return err
	}
	if r.BySport, err = store.PerformanceBySport(ctx); err != nil {
		return err
	}
	if r.ByStrategy, err = store.PerformanceByStrategy(ctx); err != nil {
		return err
	}
	if r.Daily, err = store.DailyPnL(ctx, f.days); err != nil {
		return err
	}
	if r.Recent, err = store.RecentTrades(ctx, f.limit); err != nil {
		return err
	}
	if r.ExecRate, err = store.SignalExecutionRate(ctx); err != nil {
		return err
	}

	notify.NewConsole(true).PrintReport(r)
	return nil
}
