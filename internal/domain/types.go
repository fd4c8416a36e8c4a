// Package domain defines the core data types shared across the trading
// system: markets, orders, signals, fills, positions, and weather context.
package domain

import "time"

// Side identifies which side of a binary event contract an order takes.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Action identifies the direction of a trade.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// TradingMode controls how order submissions are executed.
type TradingMode string

const (
	// ModeShadow never contacts the venue; fills are simulated locally.
	ModeShadow TradingMode = "shadow"
	// ModeDemo submits real orders against the venue's sandbox environment.
	ModeDemo TradingMode = "demo"
	// ModeLive submits real-money orders and requires explicit confirmation.
	ModeLive TradingMode = "live"
)

// Market is a single tradeable event contract as returned by the venue.
type Market struct {
	ID        string
	Ticker    string
	Title     string
	EventDate string  // YYYY-MM-DD
	Strike    float64 // threshold the contract resolves against (e.g. °F)
	YesBid    int     // cents
	YesAsk    int     // cents
	NoBid     int    // cents
	NoAsk     int    // cents
	Volume    int
	OpenTime  time.Time
	CloseTime time.Time
}

// Spread returns the yes-side bid/ask spread in cents.
func (m Market) Spread() int {
	return m.YesAsk - m.YesBid
}

// WeatherContext is the forecast snapshot a strategy evaluates against.
type WeatherContext struct {
	EntityCode   string
	ForecastHigh float64
	ForecastLow  float64
	ObservedHigh float64
	Humidity     float64
	WindSpeed    float64
	FetchedAt    time.Time
	Stale        bool
}

// Fill is an execution report from the venue against a submitted order.
type Fill struct {
	ExternalOrderID string
	TradeID         string
	Ticker          string
	Side            Side
	Quantity        int
	Price           int    // cents
	CreatedAt       string // venue timestamp, RFC 3339; parsed defensively
}

// Position is an open holding used for exposure accounting.
type Position struct {
	Ticker     string
	EntityCode string
	Cluster    string
	Side       Side
	Quantity   int
	EntryPrice int // cents
}

// Notional returns the dollar value at risk for this position.
func (p Position) Notional() float64 {
	return float64(p.Quantity) * float64(p.EntryPrice) / 100.0
}

// Entity is one independent city market the orchestrator trades.
type Entity struct {
	Code    string
	City    string
	Cluster string
	Series  string // venue series ticker prefix
}
