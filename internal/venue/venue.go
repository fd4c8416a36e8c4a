// Package venue defines the Client interface for the exchange and provides a
// REST implementation plus an in-memory simulator for paper runs and tests.
package venue

import (
	"context"
	"time"

	"tempest/internal/domain"
)

// OrderRequest is one order submission to the venue.
type OrderRequest struct {
	ClientOrderID string
	Ticker        string
	MarketID      string
	Side          domain.Side
	Action        domain.Action
	Quantity      int
	LimitPrice    int // cents
}

// Client abstracts the exchange operations the trading core needs.
type Client interface {
	// Name returns the venue identifier (e.g. "rest", "simulator").
	Name() string

	// GetMarkets returns the open markets for one series.
	GetMarkets(ctx context.Context, seriesTicker string) ([]domain.Market, error)

	// CreateOrder submits an order and returns the venue-assigned external
	// order ID.
	CreateOrder(ctx context.Context, req OrderRequest) (string, error)

	// GetFills returns fills created at or after since.
	GetFills(ctx context.Context, since time.Time) ([]domain.Fill, error)
}
