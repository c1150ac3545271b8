package ports

import (
	"context"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// MarketFilter acota un listado de mercados.
type MarketFilter struct {
	EventTicker string
	Status      string
	Limit       int
}

// MarketFeed lee cotizaciones del exchange.
type MarketFeed interface {
	// ListMarkets recorre la paginación y devuelve todos los mercados del filtro.
	ListMarkets(ctx context.Context, filter MarketFilter) ([]domain.MarketState, error)

	// GetMarket devuelve la cotización actual de un ticker.
	GetMarket(ctx context.Context, ticker string) (domain.MarketState, error)
}

// MarketResolver asocia un partido con el ticker de su mercado.
type MarketResolver interface {
	// ResolveTicker devuelve domain.ErrNoMarket si no hay mercado para el partido.
	ResolveTicker(ctx context.Context, game domain.GameState) (string, error)
}
