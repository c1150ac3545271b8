package espn

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// toGameState maps one scoreboard event. Events without exactly two
// competitors or without both home and away sides are rejected.
func toGameState(ev eventDTO, sport domain.Sport, observedAt time.Time) (domain.GameState, error) {
	if ev.ID == "" {
		return domain.GameState{}, fmt.Errorf("event without id")
	}
	if len(ev.Competitions) == 0 {
		return domain.GameState{}, fmt.Errorf("event %s: no competitions", ev.ID)
	}
	comp := ev.Competitions[0]
	if len(comp.Competitors) != 2 {
		return domain.GameState{}, fmt.Errorf("event %s: %d competitors", ev.ID, len(comp.Competitors))
	}

	var home, away *competitorDTO
	for i := range comp.Competitors {
		c := &comp.Competitors[i]
		if c.HomeAway == "home" {
			home = c
		} else {
			away = c
		}
	}
	if home == nil || away == nil {
		return domain.GameState{}, fmt.Errorf("event %s: missing home or away side", ev.ID)
	}

	status, err := parseStatus(ev.Status.Type.State)
	if err != nil {
		return domain.GameState{}, fmt.Errorf("event %s: %w", ev.ID, err)
	}

	return domain.GameState{
		EventID:      ev.ID,
		Sport:        sport,
		Home:         toTeam(home),
		Away:         toTeam(away),
		HomeScore:    int(home.Score),
		AwayScore:    int(away.Score),
		Period:       int(comp.Status.Period),
		ClockSeconds: float64(comp.Status.Clock),
		Status:       status,
		ObservedAt:   observedAt,
	}, nil
}

func toTeam(c *competitorDTO) domain.Team {
	return domain.Team{
		ID:           c.Team.ID,
		Abbreviation: c.Team.Abbreviation,
		DisplayName:  c.Team.DisplayName,
	}
}

func parseStatus(state string) (domain.GameStatus, error) {
	switch state {
	case "", "pre":
		return domain.GamePre, nil
	case "in":
		return domain.GameLive, nil
	case "post":
		return domain.GamePost, nil
	}
	return "", fmt.Errorf("unknown game state %q", state)
}
