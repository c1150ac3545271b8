package kalshi

import "time"

type marketDTO struct {
	Ticker       string `json:"ticker"`
	EventTicker  string `json:"event_ticker"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	YesBid       int    `json:"yes_bid"`
	YesAsk       int    `json:"yes_ask"`
	NoBid        int    `json:"no_bid"`
	NoAsk        int    `json:"no_ask"`
	Volume       int    `json:"volume"`
	OpenInterest int    `json:"open_interest"`
}

type marketsResponse struct {
	Markets []marketDTO `json:"markets"`
	Cursor  string      `json:"cursor"`
}

type marketResponse struct {
	Market marketDTO `json:"market"`
}

type createOrderRequest struct {
	Ticker        string `json:"ticker"`
	ClientOrderID string `json:"client_order_id,omitempty"`
	Side          string `json:"side"`
	Action        string `json:"action"`
	Type          string `json:"type"`
	Count         int    `json:"count"`
	YesPrice      *int   `json:"yes_price,omitempty"`
	NoPrice       *int   `json:"no_price,omitempty"`
}

type orderDTO struct {
	OrderID        string    `json:"order_id"`
	ClientOrderID  string    `json:"client_order_id"`
	Ticker         string    `json:"ticker"`
	Status         string    `json:"status"`
	Side           string    `json:"side"`
	Action         string    `json:"action"`
	Type           string    `json:"type"`
	Count          int       `json:"count"`
	RemainingCount int       `json:"remaining_count"`
	YesPrice       *int      `json:"yes_price"`
	NoPrice        *int      `json:"no_price"`
	CreatedTime    time.Time `json:"created_time"`
}

type orderResponse struct {
	Order orderDTO `json:"order"`
}

type ordersResponse struct {
	Orders []orderDTO `json:"orders"`
	Cursor string     `json:"cursor"`
}

type balanceResponse struct {
	Balance int `json:"balance"`
	Payout  int `json:"payout"`
}

type positionDTO struct {
	Ticker         string `json:"ticker"`
	MarketExposure int    `json:"market_exposure"`
	Position       int    `json:"position"`
	RealizedPnL    int    `json:"realized_pnl"`
}

type positionsResponse struct {
	MarketPositions []positionDTO `json:"market_positions"`
	Cursor          string        `json:"cursor"`
}
