package espn_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/alejandrodnm/kalshibot/internal/adapters/espn"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../../testdata/fixtures/espn_nfl_scoreboard.json")
	require.NoError(t, err)
	return data
}

const nbaLive = `{"events":[{"id":"401600100","status":{"type":{"state":"in"}},
 "competitions":[{"status":{"clock":95.5,"period":3},"competitors":[
  {"homeAway":"away","score":"88","team":{"id":"13","abbreviation":"LAL","displayName":"Los Angeles Lakers"}},
  {"homeAway":"home","score":"91","team":{"id":"2","abbreviation":"BOS","displayName":"Boston Celtics"}}]}]}]}`

func TestFetchScoreboard_ParsesEvents(t *testing.T) {
	data := loadFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/football/nfl/scoreboard", r.URL.Path)
		assert.Equal(t, "20241006", r.URL.Query().Get("dates"))
		assert.Empty(t, r.URL.Query().Get("groups"))
		w.Write(data)
	}))
	defer srv.Close()

	c := espn.NewClient(srv.URL, nil)
	games, err := c.FetchScoreboard(context.Background(), domain.SportNFL, "20241006")
	require.NoError(t, err)
	require.Len(t, games, 2, "the single-competitor event is skipped")

	g := games[0]
	assert.Equal(t, "401547001", g.EventID)
	assert.Equal(t, domain.SportNFL, g.Sport)
	assert.Equal(t, "KC", g.Home.Abbreviation)
	assert.Equal(t, "Buffalo Bills", g.Away.DisplayName)
	assert.Equal(t, 27, g.HomeScore)
	assert.Equal(t, 13, g.AwayScore)
	assert.Equal(t, 4, g.Period)
	assert.InDelta(t, 412.0, g.ClockSeconds, 0.001)
	assert.True(t, g.IsLive())
	assert.False(t, g.ObservedAt.IsZero())

	pre := games[1]
	assert.Equal(t, domain.GamePre, pre.Status)
	assert.Zero(t, pre.HomeScore)
	assert.Zero(t, pre.AwayScore)
}

func TestFetchScoreboard_CollegeFootballUsesFBSGroup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/football/college-football/scoreboard", r.URL.Path)
		assert.Equal(t, "80", r.URL.Query().Get("groups"))
		w.Write([]byte(`{"events":[]}`))
	}))
	defer srv.Close()

	games, err := espn.NewClient(srv.URL, nil).FetchScoreboard(context.Background(), domain.SportCollegeFootball, "")
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestFetchScoreboard_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := espn.NewClient(srv.URL, nil).FetchScoreboard(context.Background(), domain.SportNBA, "")
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestFetchLiveGames_FiltersLiveAndSkipsFailingSport(t *testing.T) {
	data := loadFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/football/nfl"):
			w.Write(data)
		case strings.HasPrefix(r.URL.Path, "/basketball/nba"):
			w.Write([]byte(nbaLive))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	live, err := espn.NewClient(srv.URL, nil).FetchLiveGames(context.Background())
	require.NoError(t, err)

	require.Len(t, live, 2)
	require.Len(t, live[domain.SportNFL], 1)
	assert.Equal(t, "401547001", live[domain.SportNFL][0].EventID)

	nba := live[domain.SportNBA]
	require.Len(t, nba, 1)
	assert.Equal(t, "BOS", nba[0].Home.Abbreviation)
	assert.Equal(t, 3, nba[0].Margin())
	assert.InDelta(t, 95.5, nba[0].ClockSeconds, 0.001)

	_, ok := live[domain.SportCollegeFootball]
	assert.False(t, ok)
}

func TestFetchLiveGames_OnlyConfiguredSports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/basketball/nba"))
		w.Write([]byte(nbaLive))
	}))
	defer srv.Close()

	live, err := espn.NewClient(srv.URL, []domain.Sport{domain.SportNBA}).FetchLiveGames(context.Background())
	require.NoError(t, err)
	assert.Len(t, live, 1)
}
