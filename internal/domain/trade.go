package domain

import "time"

// SignalKind is the action a strategy asks for.
type SignalKind string

const (
	SignalBuy  SignalKind = "buy"
	SignalSell SignalKind = "sell"
	SignalHold SignalKind = "hold"
)

// Side is the contract side of a binary market.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Opposite returns the other side of the contract.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// TradeSignal is a request to trade produced by a strategy. Price 0 means
// no limit price was set.
type TradeSignal struct {
	Kind      SignalKind `json:"kind"`
	Ticker    string     `json:"ticker"`
	Side      Side       `json:"side"`
	Size      int        `json:"size"`
	Price     int        `json:"price"`
	Reason    string     `json:"reason"`
	Timestamp time.Time  `json:"timestamp"`
}

// IsActionable reports whether the signal should reach the executor.
func (s TradeSignal) IsActionable() bool {
	return (s.Kind == SignalBuy || s.Kind == SignalSell) && s.Size > 0
}

// HasPrice reports whether a limit price is set.
func (s TradeSignal) HasPrice() bool {
	return s.Price > 0
}

// Action maps the signal to an order action.
func (s TradeSignal) Action() OrderAction {
	if s.Kind == SignalSell {
		return ActionSell
	}
	return ActionBuy
}

// MaxLimitPrice is the highest limit price the exchange accepts, in cents.
const MaxLimitPrice = 99

// CapPrice returns a copy whose limit price is at most MaxLimitPrice and
// reports whether it had to lower it.
func (s TradeSignal) CapPrice() (TradeSignal, bool) {
	if s.Price <= MaxLimitPrice {
		return s, false
	}
	out := s
	out.Price = MaxLimitPrice
	return out, true
}

// WithSize returns a copy with the given size; a non-empty note is appended
// to the reason.
func (s TradeSignal) WithSize(size int, note string) TradeSignal {
	out := s
	out.Size = size
	if note != "" {
		out.Reason = s.Reason + " (" + note + ")"
	}
	return out
}

// TradeRecord is a trade the risk manager has accounted for.
type TradeRecord struct {
	Timestamp time.Time
	Ticker    string
	Side      Side
	Action    SignalKind
	Size      int
	Price     int
	PnL       int
}

// TradeStatus is the persisted outcome of a signal.
type TradeStatus string

const (
	TradeExecuted TradeStatus = "executed"
	TradeDryRun   TradeStatus = "dry_run"
	TradeRejected TradeStatus = "rejected"
	TradeFailed   TradeStatus = "failed"
)

// TradeContext is the game/strategy metadata stored with a signal.
type TradeContext struct {
	EventID  string `json:"event_id"`
	Sport    Sport  `json:"sport"`
	Matchup  string `json:"matchup"`
	Strategy string `json:"strategy"`
}

// TradeEntry is one row of the trade journal.
type TradeEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	TradeContext
	Ticker    string      `json:"ticker"`
	Kind      SignalKind  `json:"kind"`
	Side      Side        `json:"side"`
	Size      int         `json:"size"`
	Price     int         `json:"price"`
	FillPrice int         `json:"fill_price"`
	Status    TradeStatus `json:"status"`
	Reason    string      `json:"reason"`
	PnL       int         `json:"pnl"`
}
