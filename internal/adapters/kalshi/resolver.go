package kalshi

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

const defaultListTTL = time.Minute

// eventDate is the date stamp Kalshi puts at the start of an event segment
// (25OCT11OSUMICH).
var eventDate = regexp.MustCompile(`^[0-9]{2}[A-Z]{3}[0-9]{2}`)

// DefaultSportPrefixes are the ticker prefixes each league's markets use.
func DefaultSportPrefixes() map[domain.Sport][]string {
	return map[domain.Sport][]string{
		domain.SportNFL:             {"NFL", "KXNFL"},
		domain.SportNBA:             {"NBA", "KXNBA"},
		domain.SportCollegeFootball: {"CFB", "NCAAF", "COLLEGE", "KXNCAAF"},
	}
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Mappings pins event IDs to tickers and wins over the heuristic.
	Mappings      map[string]string
	SportPrefixes map[domain.Sport][]string
	// ListTTL bounds how long the open-market listing is reused.
	ListTTL time.Duration
}

// Resolver implements ports.MarketResolver: explicit mapping first, then
// sport prefix plus team abbreviation against the open markets.
type Resolver struct {
	markets  ports.MarketFeed
	mappings map[string]string
	prefixes map[domain.Sport][]string
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	listed   []domain.MarketState
	listedAt time.Time
	resolved map[string]string
}

// NewResolver builds a resolver over the market feed.
func NewResolver(markets ports.MarketFeed, cfg ResolverConfig) *Resolver {
	if cfg.SportPrefixes == nil {
		cfg.SportPrefixes = DefaultSportPrefixes()
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = defaultListTTL
	}
	mappings := make(map[string]string, len(cfg.Mappings))
	for k, v := range cfg.Mappings {
		mappings[k] = v
	}
	return &Resolver{
		markets:  markets,
		mappings: mappings,
		prefixes: cfg.SportPrefixes,
		ttl:      cfg.ListTTL,
		now:      time.Now,
		resolved: make(map[string]string),
	}
}

// ResolveTicker returns the market ticker for game or domain.ErrNoMarket.
// Misses are not remembered: markets for a game may open later.
func (r *Resolver) ResolveTicker(ctx context.Context, game domain.GameState) (string, error) {
	if t, ok := r.mappings[game.EventID]; ok {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.resolved[game.EventID]; ok {
		return t, nil
	}

	markets, err := r.openMarketsLocked(ctx)
	if err != nil {
		return "", err
	}
	ticker, ok := MatchMarket(game, markets, r.prefixes[game.Sport])
	if !ok {
		return "", fmt.Errorf("kalshi.ResolveTicker: %s %s: %w", game.Sport, game.Matchup(), domain.ErrNoMarket)
	}
	r.resolved[game.EventID] = ticker
	return ticker, nil
}

func (r *Resolver) openMarketsLocked(ctx context.Context) ([]domain.MarketState, error) {
	if r.listed != nil && r.now().Sub(r.listedAt) < r.ttl {
		return r.listed, nil
	}
	markets, err := r.markets.ListMarkets(ctx, ports.MarketFilter{Status: "open"})
	if err != nil {
		return nil, fmt.Errorf("kalshi.ResolveTicker: list markets: %w", err)
	}
	r.listed = markets
	r.listedAt = r.now()
	return markets, nil
}

// MatchMarket picks the open market for game among markets. Only tickers
// with one of prefixes qualify, and team abbreviations are looked up only in
// the segments after the series (KXNCAAFGAME-25OCT11OSUMICH-OSU matches on
// OSUMICH and OSU). A ticker naming both teams beats one naming a single
// team; ties keep listing order.
func MatchMarket(game domain.GameState, markets []domain.MarketState, prefixes []string) (string, bool) {
	home := strings.ToUpper(game.Home.Abbreviation)
	away := strings.ToUpper(game.Away.Abbreviation)

	var single string
	for _, m := range markets {
		if !m.IsOpen() {
			continue
		}
		t := strings.ToUpper(m.Ticker)
		if !hasAnyPrefix(t, prefixes) {
			continue
		}
		teams := teamSegments(t)
		hasHome := home != "" && strings.Contains(teams, home)
		hasAway := away != "" && strings.Contains(teams, away)
		if hasHome && hasAway {
			return m.Ticker, true
		}
		if (hasHome || hasAway) && single == "" {
			single = m.Ticker
		}
	}
	return single, single != ""
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, strings.ToUpper(p)) {
			return true
		}
	}
	return false
}

// teamSegments drops the series segment and event date stamps, leaving the
// parts of the ticker that name teams, joined by "-".
func teamSegments(ticker string) string {
	_, rest, ok := strings.Cut(ticker, "-")
	if !ok {
		return ""
	}
	parts := strings.Split(rest, "-")
	for i, p := range parts {
		parts[i] = eventDate.ReplaceAllString(p, "")
	}
	return strings.Join(parts, "-")
}
