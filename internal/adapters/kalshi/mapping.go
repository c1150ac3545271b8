package kalshi

import (
	"strings"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

func toMarketState(m marketDTO) domain.MarketState {
	return domain.MarketState{
		Ticker:       m.Ticker,
		EventTicker:  m.EventTicker,
		Title:        m.Title,
		Status:       toMarketStatus(m.Status),
		YesBid:       m.YesBid,
		YesAsk:       m.YesAsk,
		NoBid:        m.NoBid,
		NoAsk:        m.NoAsk,
		Volume:       m.Volume,
		OpenInterest: m.OpenInterest,
	}
}

// the v2 API reports tradable markets as "active"
func toMarketStatus(s string) domain.MarketStatus {
	switch strings.ToLower(s) {
	case "open", "active":
		return domain.MarketOpen
	case "settled", "finalized":
		return domain.MarketSettled
	default:
		return domain.MarketClosed
	}
}

func toOrderResult(o orderDTO) domain.OrderResult {
	res := domain.OrderResult{
		ID:            o.OrderID,
		ClientOrderID: o.ClientOrderID,
		Ticker:        o.Ticker,
		Status:        toOrderStatus(o.Status),
		Side:          domain.Side(o.Side),
		Action:        domain.OrderAction(o.Action),
		Count:         o.Count,
	}
	switch {
	case res.Side == domain.SideNo && o.NoPrice != nil:
		res.Price = *o.NoPrice
	case o.YesPrice != nil:
		res.Price = *o.YesPrice
	}
	return res
}

func toOrderStatus(s string) domain.OrderStatus {
	switch strings.ToLower(s) {
	case "open", "resting":
		return domain.OrderOpen
	case "filled", "executed":
		return domain.OrderFilled
	case "canceled", "cancelled":
		return domain.OrderCanceled
	case "expired":
		return domain.OrderExpired
	default:
		return domain.OrderPending
	}
}

func toPosition(p positionDTO) domain.Position {
	return domain.Position{
		Ticker:         p.Ticker,
		MarketExposure: p.MarketExposure,
		Position:       p.Position,
		RealizedPnL:    p.RealizedPnL,
	}
}
