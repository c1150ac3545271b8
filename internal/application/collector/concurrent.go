package collector

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

type timedSnapshot struct {
	at   time.Time
	snap domain.MarketSnapshot
}

// fetchSnapshotsConcurrent resuelve y cotiza los mercados de todos los partidos
// con un worker pool. El rate limiter del cliente acota la carga real.
// Devuelve las cotizaciones en el orden de games y el número de fallos.
//
// Si workers <= 0 usa runtime.NumCPU() × 2.
func fetchSnapshotsConcurrent(
	ctx context.Context,
	resolver ports.MarketResolver,
	markets ports.MarketFeed,
	games []domain.GameState,
	workers int,
) ([]timedSnapshot, int) {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	type result struct {
		idx  int
		snap timedSnapshot
		ok   bool
		err  bool
	}

	workCh := make(chan int, len(games))
	resultCh := make(chan result, len(games))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				g := games[idx]
				if ctx.Err() != nil {
					resultCh <- result{idx: idx}
					continue
				}
				ticker, err := resolver.ResolveTicker(ctx, g)
				if err != nil {
					if !isMiss(err) {
						slog.Debug("resolve failed", "event", g.EventID, "err", err)
					}
					resultCh <- result{idx: idx, err: !isMiss(err)}
					continue
				}
				m, err := markets.GetMarket(ctx, ticker)
				if err != nil {
					slog.Debug("get market failed", "ticker", ticker, "err", err)
					resultCh <- result{idx: idx, err: true}
					continue
				}
				resultCh <- result{idx: idx, ok: true, snap: timedSnapshot{
					at:   g.ObservedAt,
					snap: domain.MarketSnapshot{EventID: g.EventID, Sport: g.Sport, Market: m},
				}}
			}
		}()
	}

	for i := range games {
		workCh <- i
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	ordered := make([]*timedSnapshot, len(games))
	failed := 0
	for r := range resultCh {
		if r.err {
			failed++
		}
		if r.ok {
			s := r.snap
			ordered[r.idx] = &s
		}
	}

	out := make([]timedSnapshot, 0, len(games))
	for _, s := range ordered {
		if s != nil {
			out = append(out, *s)
		}
	}

	slog.Debug("concurrent market fetch complete",
		"games", len(games),
		"snapshots", len(out),
		"workers", workers,
	)
	return out, failed
}
