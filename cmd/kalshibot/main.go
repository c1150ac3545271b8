package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alejandrodnm/kalshibot/config"
)

const usage = `usage: kalshibot [run|collect|backtest|report] [flags]

  run       poll live games and trade (dry run unless --live)
  collect   record game states and market snapshots for backtesting
  backtest  replay recorded snapshots through the strategies
  report    print performance from the trade log

run "kalshibot <mode> -h" for the flags of each mode`

func main() {
	mode, args := splitMode(os.Args[1:])

	fs := flag.NewFlagSet("kalshibot "+mode, flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	logFormat := fs.String("format", "", "log format: text|json (overrides config)")

	var run func(ctx context.Context, cfg *config.Config) error
	switch mode {
	case "run":
		f := registerRunFlags(fs)
		run = func(ctx context.Context, cfg *config.Config) error { return runTrading(ctx, cfg, f) }
	case "collect":
		f := registerCollectFlags(fs)
		run = func(ctx context.Context, cfg *config.Config) error { return runCollect(ctx, cfg, f) }
	case "backtest":
		f := registerBacktestFlags(fs)
		run = func(ctx context.Context, cfg *config.Config) error { return runBacktest(ctx, cfg, f) }
	case "report":
		f := registerReportFlags(fs)
		run = func(ctx context.Context, cfg *config.Config) error { return runReport(ctx, cfg, f) }
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", *configPath)
		cfg = config.Default()
	} else if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("kalshibot starting", "mode", mode, "config", *configPath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("kalshibot exited with error", "mode", mode, "err", err)
		os.Exit(1)
	}
	slog.Info("kalshibot stopped cleanly", "mode", mode)
}

// splitMode takes the first argument as the mode unless it is a flag.
// No mode means run.
func splitMode(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "run", args
	}
	return args[0], args[1:]
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
