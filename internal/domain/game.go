package domain

import (
	"fmt"
	"strings"
	"time"
)

// Sport identifica una liga soportada por el feed de marcadores.
type Sport string

const (
	SportNFL             Sport = "nfl"
	SportNBA             Sport = "nba"
	SportCollegeFootball Sport = "college-football"
)

// Sports devuelve las ligas soportadas en orden estable.
func Sports() []Sport {
	return []Sport{SportNFL, SportNBA, SportCollegeFootball}
}

// ParseSport valida un nombre de liga.
func ParseSport(s string) (Sport, error) {
	sp := Sport(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Sports() {
		if sp == known {
			return sp, nil
		}
	}
	return "", fmt.Errorf("domain.ParseSport: unknown sport %q", s)
}

// GameStatus es la fase del partido según el feed.
type GameStatus string

const (
	GamePre  GameStatus = "pre"
	GameLive GameStatus = "in"
	GamePost GameStatus = "post"
)

// Team es uno de los dos equipos de un partido.
type Team struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"display_name"`
}

// GameState es un snapshot inmutable de un partido en un instante.
type GameState struct {
	EventID      string     `json:"event_id"`
	Sport        Sport      `json:"sport"`
	Home         Team       `json:"home"`
	Away         Team       `json:"away"`
	HomeScore    int        `json:"home_score"`
	AwayScore    int        `json:"away_score"`
	Period       int        `json:"period"`
	ClockSeconds float64    `json:"clock_seconds"` // segundos restantes en el periodo actual
	Status       GameStatus `json:"status"`
	ObservedAt   time.Time  `json:"observed_at"`
}

// Margin es home_score - away_score. Positivo = gana el local.
func (g GameState) Margin() int {
	return g.HomeScore - g.AwayScore
}

// HomeLeading devuelve true si el local va estrictamente por delante.
func (g GameState) HomeLeading() bool {
	return g.Margin() > 0
}

// IsLive devuelve true si el partido está en juego.
func (g GameState) IsLive() bool {
	return g.Status == GameLive
}

// IsFinal devuelve true si el partido terminó.
func (g GameState) IsFinal() bool {
	return g.Status == GamePost
}

// Matchup devuelve "AWAY@HOME" con las abreviaturas.
func (g GameState) Matchup() string {
	return g.Away.Abbreviation + "@" + g.Home.Abbreviation
}
