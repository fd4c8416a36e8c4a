// Package store defines storage interfaces for persisting orders and run
// history, with SQLite and Parquet implementations.
package store

import (
	"context"

	"tempest/internal/domain"
)

// OrderStore is the durable mirror of the in-memory order index. All calls
// are best-effort from the caller's perspective: the trading core logs and
// swallows persistence failures.
type OrderStore interface {
	// CreateOrderIdempotent inserts the order unless its intent key already
	// exists, in which case it is a no-op.
	CreateOrderIdempotent(ctx context.Context, o *domain.Order) error

	// UpdateStatus persists the order's current status, external ID,
	// fill state, and timestamps.
	UpdateStatus(ctx context.Context, o *domain.Order) error

	// RecordFill appends a reconciled fill for audit.
	RecordFill(ctx context.Context, intentKey string, fill domain.Fill) error

	// GetOpenOrders returns every order not in a terminal state.
	GetOpenOrders(ctx context.Context) ([]domain.Order, error)
}
