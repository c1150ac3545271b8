package kalshi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alejandrodnm/kalshibot/internal/adapters/kalshi"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	markets []domain.MarketState
	lists   int
	err     error
}

func (f *fakeFeed) ListMarkets(_ context.Context, filter ports.MarketFilter) ([]domain.MarketState, error) {
	f.lists++
	return f.markets, f.err
}

func (f *fakeFeed) GetMarket(_ context.Context, ticker string) (domain.MarketState, error) {
	for _, m := range f.markets {
		if m.Ticker == ticker {
			return m, nil
		}
	}
	return domain.MarketState{}, errors.New("not found")
}

func game(sport domain.Sport, id, home, away string) domain.GameState {
	return domain.GameState{
		EventID: id, Sport: sport, Status: domain.GameLive,
		Home: domain.Team{Abbreviation: home}, Away: domain.Team{Abbreviation: away},
	}
}

func open(ticker string) domain.MarketState {
	return domain.MarketState{Ticker: ticker, Status: domain.MarketOpen}
}

func TestMatchMarket(t *testing.T) {
	markets := []domain.MarketState{
		open("NBA-BOS-LAL"),
		open("NFL-24OCT06-KC"),
		open("NFL-24OCT06-BUFKC"),
		{Ticker: "NFL-CLOSED-BUFKC", Status: domain.MarketClosed},
	}
	prefixes := kalshi.DefaultSportPrefixes()[domain.SportNFL]

	ticker, ok := kalshi.MatchMarket(game(domain.SportNFL, "1", "KC", "BUF"), markets, prefixes)
	require.True(t, ok)
	assert.Equal(t, "NFL-24OCT06-BUFKC", ticker, "both teams beat one team")

	ticker, ok = kalshi.MatchMarket(game(domain.SportNFL, "2", "KC", "DEN"), markets, prefixes)
	require.True(t, ok)
	assert.Equal(t, "NFL-24OCT06-KC", ticker)

	_, ok = kalshi.MatchMarket(game(domain.SportNFL, "3", "PHI", "DAL"), markets, prefixes)
	assert.False(t, ok)

	_, ok = kalshi.MatchMarket(game(domain.SportNBA, "4", "BOS", "LAL"), markets, prefixes)
	assert.False(t, ok, "NBA market never matches NFL prefixes")
}

func TestMatchMarket_CollegeFootballPrefixes(t *testing.T) {
	prefixes := kalshi.DefaultSportPrefixes()[domain.SportCollegeFootball]
	ticker, ok := kalshi.MatchMarket(
		game(domain.SportCollegeFootball, "1", "UGA", "BAMA"),
		[]domain.MarketState{open("NCAAF-UGABAMA")}, prefixes)
	require.True(t, ok)
	assert.Equal(t, "NCAAF-UGABAMA", ticker)
}

func TestMatchMarket_IgnoresSeriesAndDate(t *testing.T) {
	prefixes := kalshi.DefaultSportPrefixes()[domain.SportCollegeFootball]
	markets := []domain.MarketState{open("KXNCAAFGAME-25OCT11OSUMICH-OSU")}

	_, ok := kalshi.MatchMarket(game(domain.SportCollegeFootball, "1", "AF", "NAVY"), markets, prefixes)
	assert.False(t, ok, "AF only appears in the series name")

	_, ok = kalshi.MatchMarket(game(domain.SportCollegeFootball, "2", "OCT", "ARMY"), markets, prefixes)
	assert.False(t, ok, "OCT only appears in the date stamp")

	ticker, ok := kalshi.MatchMarket(game(domain.SportCollegeFootball, "3", "MICH", "OSU"), markets, prefixes)
	require.True(t, ok)
	assert.Equal(t, "KXNCAAFGAME-25OCT11OSUMICH-OSU", ticker)

	_, ok = kalshi.MatchMarket(game(domain.SportNFL, "4", "KC", "BUF"), []domain.MarketState{open("NFLKCBUF")},
		kalshi.DefaultSportPrefixes()[domain.SportNFL])
	assert.False(t, ok, "ticker without event segment")
}

func TestResolver_ExplicitMappingWins(t *testing.T) {
	feed := &fakeFeed{markets: []domain.MarketState{open("NFL-BUFKC")}}
	r := kalshi.NewResolver(feed, kalshi.ResolverConfig{Mappings: map[string]string{"401": "CUSTOM-TICKER"}})

	ticker, err := r.ResolveTicker(context.Background(), game(domain.SportNFL, "401", "KC", "BUF"))
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM-TICKER", ticker)
	assert.Zero(t, feed.lists)
}

func TestResolver_CachesHitsNotMisses(t *testing.T) {
	feed := &fakeFeed{markets: []domain.MarketState{open("NFL-BUFKC")}}
	r := kalshi.NewResolver(feed, kalshi.ResolverConfig{})

	g := game(domain.SportNFL, "401", "KC", "BUF")
	for i := 0; i < 3; i++ {
		ticker, err := r.ResolveTicker(context.Background(), g)
		require.NoError(t, err)
		assert.Equal(t, "NFL-BUFKC", ticker)
	}
	assert.Equal(t, 1, feed.lists)

	_, err := r.ResolveTicker(context.Background(), game(domain.SportNFL, "402", "PHI", "DAL"))
	assert.ErrorIs(t, err, domain.ErrNoMarket)
	assert.Equal(t, 1, feed.lists, "listing is reused within the TTL")
}

func TestResolver_ListError(t *testing.T) {
	feed := &fakeFeed{err: &domain.APIError{StatusCode: 429}}
	r := kalshi.NewResolver(feed, kalshi.ResolverConfig{})
	_, err := r.ResolveTicker(context.Background(), game(domain.SportNFL, "401", "KC", "BUF"))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.False(t, errors.Is(err, domain.ErrNoMarket))
}
