package oms

import (
	"context"
	"time"

	"tempest/internal/domain"
)

// ReconcileResult summarises one reconciliation pass.
type ReconcileResult struct {
	Matched       int
	Orphaned      int
	OrphanedFills []domain.Fill
	UpdatedOrders []string // intent keys touched this pass
}

// ReconcileFills matches venue fills to local orders by external order ID
// and updates their fill state. Fills older than since are skipped
// (incremental polling); pass the zero time to reconcile everything.
//
// Matching is by external order ID only, because the venue does not echo the
// intent key back. An order resubmitted after a crash before its external ID
// was durably recorded can therefore see its fills reported as orphans; that
// race is surfaced, not patched, since a correct fix needs submission
// acknowledgment before fill polling.
//
// Orphaned fills are counted and retained in the result, never silently
// dropped: they indicate a desynchronization with the venue.
func (s *Store) ReconcileFills(ctx context.Context, fills []domain.Fill, since time.Time) ReconcileResult {
	res := ReconcileResult{}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fill := range fills {
		ts := parseFillTime(fill.CreatedAt)
		if !since.IsZero() && ts.Before(since) {
			continue
		}

		key, ok := s.byExternal[fill.ExternalOrderID]
		if !ok {
			res.Orphaned++
			res.OrphanedFills = append(res.OrphanedFills, fill)
			s.log.Warn("orphaned fill: no local order for external id",
				"external_order_id", fill.ExternalOrderID,
				"ticker", fill.Ticker,
				"qty", fill.Quantity,
			)
			continue
		}

		o := s.byIntent[key]
		s.applyFillLocked(ctx, o, fill)
		res.Matched++
		res.UpdatedOrders = append(res.UpdatedOrders, key)
	}

	return res
}

// applyFillLocked folds one fill into the order: quantity-weighted running
// average price, remaining quantity, and the FILLED / PARTIALLY_FILLED
// transition. Caller holds the write lock.
func (s *Store) applyFillLocked(ctx context.Context, o *domain.Order, fill domain.Fill) {
	prevFilled := o.FilledQuantity
	newFilled := prevFilled + fill.Quantity
	if newFilled > 0 {
		o.AvgFillPrice = (o.AvgFillPrice*float64(prevFilled) + float64(fill.Price)*float64(fill.Quantity)) / float64(newFilled)
	}
	o.FilledQuantity = newFilled
	o.RemainingQuantity = o.Quantity - newFilled
	if o.RemainingQuantity < 0 {
		o.RemainingQuantity = 0
	}

	next := domain.OrderStatusPartiallyFilled
	if newFilled >= o.Quantity {
		next = domain.OrderStatusFilled
	}
	if o.Status != next && o.Status.CanTransition(next) {
		s.applyStatusLocked(o, next)
	}

	if s.durable != nil {
		if err := s.durable.RecordFill(ctx, o.IntentKey, fill); err != nil {
			s.log.Warn("persisting fill failed", "intent_key", o.IntentKey, "err", err)
		}
	}
	s.persistUpdateLocked(ctx, o)

	s.log.Info("fill reconciled",
		"intent_key", o.IntentKey,
		"fill_qty", fill.Quantity,
		"fill_price", fill.Price,
		"filled", o.FilledQuantity,
		"avg_price", o.AvgFillPrice,
		"status", o.Status,
	)
}

// parseFillTime parses a venue timestamp defensively: an unparsable value
// defaults to now rather than discarding the fill.
func parseFillTime(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts
	}
	return time.Now().UTC()
}
