// Package espn reads public scoreboards from ESPN's site API.
package espn

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/adapters/restclient"
	"github.com/alejandrodnm/kalshibot/internal/domain"
)

const (
	DefaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports"

	// unofficial API; stay well below anything that could get us blocked
	ratePerSec = 5
	// FBS only
	collegeFootballGroup = "80"
)

var sportPaths = map[domain.Sport]string{
	domain.SportNFL:             "/football/nfl",
	domain.SportNBA:             "/basketball/nba",
	domain.SportCollegeFootball: "/football/college-football",
}

// Client implements ports.ScoreFeed.
type Client struct {
	rest   *restclient.Client
	sports []domain.Sport
	now    func() time.Time
}

// NewClient builds a client for the given sports. Empty baseURL uses ESPN
// production; empty sports means every supported sport.
func NewClient(baseURL string, sports []domain.Sport) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if len(sports) == 0 {
		sports = domain.Sports()
	}
	return &Client{
		rest: restclient.New(restclient.Config{
			BaseURL:    baseURL,
			RatePerSec: ratePerSec,
			Burst:      len(sports),
			Timeout:    30 * time.Second,
			Name:       "espn",
		}),
		sports: sports,
		now:    time.Now,
	}
}

// FetchScoreboard returns every parsable game of the sport's scoreboard.
// date is YYYYMMDD; empty means today.
func (c *Client) FetchScoreboard(ctx context.Context, sport domain.Sport, date string) ([]domain.GameState, error) {
	path, ok := sportPaths[sport]
	if !ok {
		return nil, fmt.Errorf("espn.FetchScoreboard: unsupported sport %q", sport)
	}

	q := url.Values{}
	if date != "" {
		q.Set("dates", date)
	}
	if sport == domain.SportCollegeFootball {
		q.Set("groups", collegeFootballGroup)
	}

	var resp scoreboardResponse
	if err := c.rest.Get(ctx, path+"/scoreboard", q, &resp); err != nil {
		return nil, fmt.Errorf("espn.FetchScoreboard: %s: %w", sport, err)
	}

	observed := c.now().UTC()
	games := make([]domain.GameState, 0, len(resp.Events))
	for _, ev := range resp.Events {
		g, err := toGameState(ev, sport, observed)
		if err != nil {
			slog.Warn("espn: skipping unparsable event", "sport", sport, "err", err)
			continue
		}
		games = append(games, g)
	}
	return games, nil
}

// FetchLiveGames fetches the configured sports in parallel and keeps only
// in-progress games. A failing sport is logged and left out of the result.
func (c *Client) FetchLiveGames(ctx context.Context) (map[domain.Sport][]domain.GameState, error) {
	type sportResult struct {
		sport domain.Sport
		games []domain.GameState
		err   error
	}

	resultCh := make(chan sportResult, len(c.sports))
	var wg sync.WaitGroup
	for _, sport := range c.sports {
		wg.Add(1)
		go func(sport domain.Sport) {
			defer wg.Done()
			games, err := c.FetchScoreboard(ctx, sport, "")
			resultCh <- sportResult{sport: sport, games: games, err: err}
		}(sport)
	}
	wg.Wait()
	close(resultCh)

	out := make(map[domain.Sport][]domain.GameState)
	for r := range resultCh {
		if r.err != nil {
			slog.Warn("espn: sport fetch failed", "sport", r.sport, "err", r.err)
			continue
		}
		var live []domain.GameState
		for _, g := range r.games {
			if g.IsLive() {
				live = append(live, g)
			}
		}
		if len(live) > 0 {
			out[r.sport] = live
		}
	}

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
