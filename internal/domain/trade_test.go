package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTradeSignal_IsActionable(t *testing.T) {
	cases := []struct {
		name string
		sig  domain.TradeSignal
		want bool
	}{
		{"buy with size", domain.TradeSignal{Kind: domain.SignalBuy, Size: 10}, true},
		{"sell with size", domain.TradeSignal{Kind: domain.SignalSell, Size: 1}, true},
		{"hold", domain.TradeSignal{Kind: domain.SignalHold, Size: 10}, false},
		{"zero size", domain.TradeSignal{Kind: domain.SignalBuy, Size: 0}, false},
		{"negative size", domain.TradeSignal{Kind: domain.SignalBuy, Size: -3}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.sig.IsActionable())
		})
	}
}

func TestTradeSignal_WithSizeDoesNotMutate(t *testing.T) {
	sig := domain.TradeSignal{Kind: domain.SignalBuy, Size: 50, Reason: "Margin 14 exceeds threshold 10 (leading)"}
	adj := sig.WithSize(20, "reduced from 50 to 20")

	assert.Equal(t, 50, sig.Size)
	assert.Equal(t, 20, adj.Size)
	assert.Equal(t, "Margin 14 exceeds threshold 10 (leading) (reduced from 50 to 20)", adj.Reason)
}

func TestTradeSignal_CapPrice(t *testing.T) {
	sig := domain.TradeSignal{Kind: domain.SignalBuy, Price: 101}
	capped, ok := sig.CapPrice()
	assert.True(t, ok)
	assert.Equal(t, 99, capped.Price)
	assert.Equal(t, 101, sig.Price)

	same, ok := domain.TradeSignal{Price: 99}.CapPrice()
	assert.False(t, ok)
	assert.Equal(t, 99, same.Price)
}

func TestOrderFromSignal(t *testing.T) {
	limit := domain.OrderFromSignal(domain.TradeSignal{
		Kind: domain.SignalBuy, Ticker: "NFL-1", Side: domain.SideNo, Size: 5, Price: 42,
	}, "cid")
	assert.Equal(t, domain.OrderLimit, limit.Type)
	assert.Equal(t, 42, limit.Price)
	assert.Equal(t, domain.SideNo, limit.Side)
	assert.Equal(t, domain.ActionBuy, limit.Action)
	assert.Equal(t, 5, limit.Count)

	market := domain.OrderFromSignal(domain.TradeSignal{
		Kind: domain.SignalSell, Ticker: "NFL-1", Side: domain.SideYes, Size: 5,
	}, "cid")
	assert.Equal(t, domain.OrderMarket, market.Type)
	assert.Equal(t, domain.ActionSell, market.Action)
	assert.Zero(t, market.Price)
}

func TestBacktestResult_WinRate(t *testing.T) {
	assert.Zero(t, domain.BacktestResult{}.WinRate())
	r := domain.BacktestResult{TotalTrades: 4, WinningTrades: 3, TotalPnL: 9050}
	assert.InDelta(t, 0.75, r.WinRate(), 1e-9)
	assert.Equal(t, "$90.50", r.TotalPnLDollars())
}

func TestDollars(t *testing.T) {
	assert.Equal(t, "$0.00", domain.Dollars(0))
	assert.Equal(t, "$12.34", domain.Dollars(1234))
	assert.Equal(t, "-$5.00", domain.Dollars(-500))
	assert.Equal(t, 50000, domain.DollarsToCents(500))
	assert.Equal(t, 1999, domain.DollarsToCents(19.99))
}

func TestAPIError_Is(t *testing.T) {
	var err error = fmt.Errorf("wrapped: %w", &domain.APIError{StatusCode: 429, Code: "rate_limit"})
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	assert.False(t, errors.Is(err, domain.ErrAuth))

	err = &domain.APIError{StatusCode: 401, Message: "bad key"}
	assert.True(t, errors.Is(err, domain.ErrAuth))

	err = &domain.APIError{StatusCode: 400, Code: "invalid_order", Message: "bad"}
	assert.False(t, errors.Is(err, domain.ErrRateLimited))
	assert.Equal(t, "api error 400 (invalid_order): bad", err.Error())
}
