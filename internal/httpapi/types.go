// Package httpapi provides a read-only HTTP REST API over the trading
// core: order book state, breaker state, and the last run summary in JSON.
package httpapi

import (
	"time"

	"tempest/internal/domain"
)

// OrderJSON is the JSON representation of one tracked order.
type OrderJSON struct {
	IntentKey         string  `json:"intentKey"`
	ExternalOrderID   string  `json:"externalOrderId,omitempty"`
	EntityCode        string  `json:"entityCode"`
	Ticker            string  `json:"ticker"`
	MarketID          string  `json:"marketId"`
	Side              string  `json:"side"`
	Quantity          int     `json:"quantity"`
	LimitPrice        int     `json:"limitPrice"`
	Status            string  `json:"status"`
	StatusMessage     string  `json:"statusMessage,omitempty"`
	FilledQuantity    int     `json:"filledQuantity"`
	RemainingQuantity int     `json:"remainingQuantity"`
	AvgFillPrice      float64 `json:"avgFillPrice,omitempty"`
	CreatedAt         string  `json:"createdAt"`
}

// OrdersResponse wraps a list of orders.
type OrdersResponse struct {
	Count  int         `json:"count"`
	Orders []OrderJSON `json:"orders"`
}

// BreakerResponse reports circuit breaker state.
type BreakerResponse struct {
	Paused bool   `json:"paused"`
	Reason string `json:"reason,omitempty"`
}

// RunSummaryJSON is the JSON representation of the last orchestrator run.
type RunSummaryJSON struct {
	StartedAt        string `json:"startedAt"`
	DurationMs       int64  `json:"durationMs"`
	TotalEntities    int    `json:"totalEntities"`
	CitiesSucceeded  int    `json:"citiesSucceeded"`
	CitiesFailed     int    `json:"citiesFailed"`
	SignalsGenerated int    `json:"signalsGenerated"`
	OrdersSubmitted  int    `json:"ordersSubmitted"`
}

// StatusResponse is the top-level /api/status payload.
type StatusResponse struct {
	Mode         string          `json:"mode"`
	OpenOrders   int             `json:"openOrders"`
	OpenNotional float64         `json:"openNotional"`
	Breaker      BreakerResponse `json:"breaker"`
	LastRun      *RunSummaryJSON `json:"lastRun,omitempty"`
}

func toOrderJSON(o domain.Order) OrderJSON {
	return OrderJSON{
		IntentKey:         o.IntentKey,
		ExternalOrderID:   o.ExternalOrderID,
		EntityCode:        o.EntityCode,
		Ticker:            o.Ticker,
		MarketID:          o.MarketID,
		Side:              string(o.Side),
		Quantity:          o.Quantity,
		LimitPrice:        o.LimitPrice,
		Status:            string(o.Status),
		StatusMessage:     o.StatusMessage,
		FilledQuantity:    o.FilledQuantity,
		RemainingQuantity: o.RemainingQuantity,
		AvgFillPrice:      o.AvgFillPrice,
		CreatedAt:         o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
