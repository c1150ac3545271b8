package ports

import (
	"context"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// OrderExecutor places and inspects orders on the exchange.
type OrderExecutor interface {
	// PlaceOrder submits the order. Credential failures wrap domain.ErrAuth.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)

	// CancelOrder cancels an open order by exchange ID.
	CancelOrder(ctx context.Context, orderID string) error

	// GetPositions returns positions, optionally filtered by ticker.
	GetPositions(ctx context.Context, ticker string) ([]domain.Position, error)

	// GetBalance returns available and pending funds in cents.
	GetBalance(ctx context.Context) (domain.Balance, error)
}
