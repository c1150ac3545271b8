package ports

import (
	"context"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// ScoreFeed obtiene marcadores del proveedor de datos deportivos.
type ScoreFeed interface {
	// FetchLiveGames devuelve los partidos en juego de todas las ligas
	// configuradas. Un fallo en una liga no invalida las demás.
	FetchLiveGames(ctx context.Context) (map[domain.Sport][]domain.GameState, error)

	// FetchScoreboard devuelve todos los partidos de una liga. date en
	// formato YYYYMMDD; vacío = hoy.
	FetchScoreboard(ctx context.Context, sport domain.Sport, date string) ([]domain.GameState, error)
}
