package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/kalshibot/config"
	"github.com/alejandrodnm/kalshibot/internal/adapters/cache"
	"github.com/alejandrodnm/kalshibot/internal/adapters/espn"
	"github.com/alejandrodnm/kalshibot/internal/adapters/httpapi"
	"github.com/alejandrodnm/kalshibot/internal/adapters/kalshi"
	"github.com/alejandrodnm/kalshibot/internal/adapters/notify"
	"github.com/alejandrodnm/kalshibot/internal/adapters/storage"
	"github.com/alejandrodnm/kalshibot/internal/application/engine/live"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
	"github.com/alejandrodnm/kalshibot/internal/risk"
	"github.com/alejandrodnm/kalshibot/internal/scheduler"
	"github.com/alejandrodnm/kalshibot/internal/strategy"
)

type runFlags struct {
	live          bool
	table         bool
	strategiesDir string
	env           string
	keyID         string
	keyPath       string
	maxPosition   int
	maxDailyLoss  float64 // dólares
	pollInterval  float64 // segundos
	noServer      bool
}

func registerRunFlags(fs *flag.FlagSet) *runFlags {
	f := &runFlags{}
	fs.BoolVar(&f.live, "live", false, "submit real orders (default: dry run)")
	fs.BoolVar(&f.table, "table", false, "print a decisions table every cycle (default: compact 1-line)")
	fs.StringVar(&f.strategiesDir, "strategies", "", "strategies directory (overrides config)")
	fs.StringVar(&f.env, "env", "", "kalshi environment: sandbox|production (overrides config)")
	fs.StringVar(&f.keyID, "key-id", "", "kalshi API key ID (or KALSHI_API_KEY_ID)")
	fs.StringVar(&f.keyPath, "key-path", "", "path to RSA private key (or KALSHI_PRIVATE_KEY_PATH)")
	fs.IntVar(&f.maxPosition, "max-position", 0, "max contracts per market (overrides config)")
	fs.Float64Var(&f.maxDailyLoss, "max-daily-loss", 0, "max daily loss in dollars (overrides config)")
	fs.Float64Var(&f.pollInterval, "poll-interval", 0, "polling interval in seconds (overrides config)")
	fs.BoolVar(&f.noServer, "no-server", false, "do not start the status API")
	return f
}

// apply vuelca los flags sobre la configuración. Cero = no sobreescribir.
func (f *runFlags) apply(cfg *config.Config) {
	if f.strategiesDir != "" {
		cfg.Engine.StrategiesDir = f.strategiesDir
	}
	if f.env != "" {
		cfg.Kalshi.Environment = f.env
	}
	if f.keyID != "" {
		cfg.Kalshi.APIKeyID = f.keyID
	}
	if f.keyPath != "" {
		cfg.Kalshi.PrivateKeyPath = f.keyPath
	}
	if f.maxPosition != 0 {
		cfg.Risk.MaxPositionSize = f.maxPosition
	}
	if f.maxDailyLoss != 0 {
		cfg.Risk.MaxDailyLoss = domain.DollarsToCents(f.maxDailyLoss)
	}
	if f.pollInterval > 0 {
		cfg.Engine.PollIntervalSeconds = max(1, int(f.pollInterval))
	}
	if f.noServer {
		cfg.Server.Enabled = false
	}
	if f.live {
		dry := false
		cfg.Engine.DryRun = &dry
	}
}

func runTrading(ctx context.Context, cfg *config.Config, f *runFlags) error {
	f.apply(cfg)
	dryRun := cfg.IsDryRun()

	limits := cfg.RiskLimits()
	riskMgr, err := risk.NewManager(limits)
	if err != nil {
		return fmt.Errorf("risk limits: %w", err)
	}

	strategies, err := loadStrategies(cfg.Engine.StrategiesDir)
	if err != nil {
		return err
	}

	signer, err := loadSigner(cfg)
	if err != nil {
		return err
	}
	if !dryRun && signer == nil {
		return errors.New("live trading requires an API key: use --key-id/--key-path or KALSHI_API_KEY_ID/KALSHI_PRIVATE_KEY_PATH")
	}

	if !dryRun && cfg.Kalshi.Environment == kalshi.EnvProduction {
		if !confirmLive(os.Stdin, os.Stdout, limits) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	client, err := kalshi.NewClient(kalshi.Config{
		Environment: cfg.Kalshi.Environment,
		BaseURL:     cfg.Kalshi.BaseURL,
		Signer:      signer,
	})
	if err != nil {
		return err
	}

	store, err := openWritableStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	resolver, closeCache := buildResolver(ctx, cfg, client)
	defer closeCache()

	// en dry run con credenciales solo se sincronizan posiciones
	var executor ports.OrderExecutor
	if signer != nil {
		executor = client
	}

	console := notify.NewConsole(f.table)
	hub := httpapi.NewHub()

	engine, err := live.New(
		espn.NewClient(cfg.ESPN.BaseURL, cfg.Sports()),
		resolver,
		client,
		executor,
		riskMgr,
		strategies,
		live.Config{
			PollInterval:    cfg.PollInterval(),
			DryRun:          dryRun,
			RecordSnapshots: cfg.Engine.RecordSnapshots,
			StopFile:        cfg.Engine.StopFile,
		},
		live.WithStore(store),
		live.WithPublisher(console, hub),
	)
	if err != nil {
		return err
	}

	mode := "DRY RUN"
	if !dryRun {
		mode = "LIVE"
	}
	fmt.Printf("\nKalshi/ESPN trading | env: %s | mode: %s | strategies: %d | poll: %s\n",
		cfg.Kalshi.Environment, mode, len(strategies), cfg.PollInterval())
	console.PrintRisk(riskMgr.Summary())

	if cfg.Server.Enabled {
		go hub.Run(ctx)
		srv := httpapi.NewServer(engine, store, hub)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				slog.Error("status API stopped", "err", err)
			}
		}()
	}

	if cfg.Scheduler.Enabled {
		sched, err := startScheduler(ctx, cfg, store, riskMgr)
		if err != nil {
			return err
		}
		defer sched.Stop()
	}

	err = engine.Run(ctx)
	console.PrintRisk(riskMgr.Summary())
	return err
}

func loadStrategies(dir string) ([]strategy.Strategy, error) {
	strategies, err := config.LoadStrategies(dir)
	if err != nil {
		return nil, err
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no enabled strategies in %q", dir)
	}
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.Name)
	}
	slog.Info("strategies loaded", "dir", dir, "names", strings.Join(names, ","))
	return strategies, nil
}

// loadSigner devuelve nil sin credenciales: el cliente queda en solo lectura.
func loadSigner(cfg *config.Config) (*kalshi.Signer, error) {
	if !cfg.HasCredentials() {
		return nil, nil
	}
	key, err := kalshi.LoadPrivateKey(cfg.Kalshi.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	return kalshi.NewSigner(cfg.Kalshi.APIKeyID, key), nil
}

// buildResolver monta el resolver de Kalshi y, si hay Redis, la caché
// read-through delante. Redis caído no es fatal.
func buildResolver(ctx context.Context, cfg *config.Config, feed ports.MarketFeed) (ports.MarketResolver, func()) {
	base := kalshi.NewResolver(feed, kalshi.ResolverConfig{
		Mappings:      cfg.Markets.Mappings,
		SportPrefixes: cfg.SportPrefixes(),
		ListTTL:       cfg.ListTTL(),
	})
	if cfg.Cache.RedisURL == "" {
		return base, func() {}
	}
	rdb, err := cache.Connect(ctx, cfg.Cache.RedisURL)
	if err != nil {
		slog.Warn("redis unavailable, resolving without cache", "err", err)
		return base, func() {}
	}
	slog.Info("market resolution cached in redis", "ttl", cfg.CacheTTL())
	return cache.NewCachedResolver(base, rdb, cfg.CacheTTL()), func() { _ = rdb.Close() }
}

func startScheduler(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage, riskMgr *risk.Manager) (*scheduler.Runner, error) {
	sched := scheduler.New(ctx)
	if _, err := sched.Add("daily_rollup", cfg.Scheduler.RollupSpec, scheduler.DailyRollup(store, time.Now)); err != nil {
		return nil, err
	}
	if _, err := sched.Add("storage_prune", cfg.Scheduler.RollupSpec, scheduler.StoragePrune(store)); err != nil {
		return nil, err
	}
	if riskMgr != nil {
		if _, err := sched.Add("risk_day_boundary", cfg.Scheduler.ResetSpec, scheduler.RiskDayBoundary(riskMgr)); err != nil {
			return nil, err
		}
	}
	sched.Start()
	return sched, nil
}

// openWritableStore abre la base y aplica la retención. backtest y report
// abren con storage.NewSQLiteStorage directamente y nunca borran historia.
func openWritableStore(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
	}
	if _, err := store.Prune(ctx); err != nil {
		slog.Warn("storage prune failed", "err", err)
	}
	return store, nil
}

// confirmLive pide escribir "yes" antes de operar con dinero real.
func confirmLive(in io.Reader, out io.Writer, limits risk.Limits) bool {
	fmt.Fprintln(out, "\nWARNING: LIVE TRADING ON PRODUCTION. Real money will be spent.")
	fmt.Fprintf(out, "   Max position: %d contracts\n", limits.MaxPositionSize)
	fmt.Fprintf(out, "   Max daily loss: %s\n", domain.Dollars(limits.MaxDailyLoss))
	fmt.Fprint(out, "\nType 'yes' to confirm: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes")
}
