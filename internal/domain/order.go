package domain

// OrderAction is buy or sell.
type OrderAction string

const (
	ActionBuy  OrderAction = "buy"
	ActionSell OrderAction = "sell"
)

// OrderType is limit or market.
type OrderType string

const (
	OrderLimit  OrderType = "limit"
	OrderMarket OrderType = "market"
)

// OrderStatus mirrors the exchange order lifecycle.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderOpen     OrderStatus = "open"
	OrderFilled   OrderStatus = "filled"
	OrderCanceled OrderStatus = "canceled"
	OrderExpired  OrderStatus = "expired"
)

// OrderRequest is an order ready to be submitted. Price is the limit price
// for Side and is ignored for market orders.
type OrderRequest struct {
	Ticker        string
	ClientOrderID string
	Side          Side
	Action        OrderAction
	Type          OrderType
	Count         int
	Price         int
}

// OrderFromSignal builds the order for an actionable signal: limit when the
// signal carries a price, market otherwise.
func OrderFromSignal(sig TradeSignal, clientOrderID string) OrderRequest {
	req := OrderRequest{
		Ticker:        sig.Ticker,
		ClientOrderID: clientOrderID,
		Side:          sig.Side,
		Action:        sig.Action(),
		Type:          OrderMarket,
		Count:         sig.Size,
	}
	if sig.HasPrice() {
		req.Type = OrderLimit
		req.Price = sig.Price
	}
	return req
}

// OrderResult is the exchange acknowledgement.
type OrderResult struct {
	ID            string
	ClientOrderID string
	Ticker        string
	Status        OrderStatus
	Side          Side
	Action        OrderAction
	Count         int
	Price         int
}
