package domain

// MarketStatus es el estado de negociación de un mercado.
type MarketStatus string

const (
	MarketOpen    MarketStatus = "open"
	MarketClosed  MarketStatus = "closed"
	MarketSettled MarketStatus = "settled"
)

// MarketState es la cotización de un contrato binario. Precios en centavos 0-100.
type MarketState struct {
	Ticker       string       `json:"ticker"`
	EventTicker  string       `json:"event_ticker"`
	Title        string       `json:"title"`
	Status       MarketStatus `json:"status"`
	YesBid       int          `json:"yes_bid"`
	YesAsk       int          `json:"yes_ask"`
	NoBid        int          `json:"no_bid"`
	NoAsk        int          `json:"no_ask"`
	Volume       int          `json:"volume"`
	OpenInterest int          `json:"open_interest"`
}

// IsOpen devuelve true si el mercado acepta órdenes.
func (m MarketState) IsOpen() bool {
	return m.Status == MarketOpen
}

// AskFor devuelve el ask del lado indicado.
func (m MarketState) AskFor(side Side) int {
	if side == SideNo {
		return m.NoAsk
	}
	return m.YesAsk
}

// MarketSnapshot es una cotización persistida junto al partido que la originó.
type MarketSnapshot struct {
	EventID string
	Sport   Sport
	Market  MarketState
}

// Position es la posición neta en un mercado. Position > 0 = largo en YES.
type Position struct {
	Ticker         string `json:"ticker"`
	MarketExposure int    `json:"market_exposure"`
	Position       int    `json:"position"`
	RealizedPnL    int    `json:"realized_pnl"`
}

// Balance es el saldo de la cuenta en centavos.
type Balance struct {
	Available int `json:"available"`
	Pending   int `json:"pending"`
}
