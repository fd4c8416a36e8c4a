package oms

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"tempest/internal/domain"
	"tempest/internal/store"
)

// Store is the in-memory order index and state machine. Writes happen only
// from the sequential execution phase; reads may come concurrently from the
// status API, so the index sits behind a reader-writer lock.
//
// An optional durable backend mirrors every mutation best-effort: a
// persistence failure is logged and swallowed, never blocking the in-memory
// trading decision.
type Store struct {
	mu         sync.RWMutex
	byIntent   map[string]*domain.Order
	byExternal map[string]string // external order ID -> intent key

	durable store.OrderStore // nil when running without persistence
	log     *slog.Logger
}

// NewStore creates an order store. durable may be nil.
func NewStore(durable store.OrderStore, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		byIntent:   make(map[string]*domain.Order),
		byExternal: make(map[string]string),
		durable:    durable,
		log:        log,
	}
}

// SubmitOrder creates a PENDING order for the given trade intent, or returns
// the existing order unchanged when the derived intent key is already known.
// The returned bool reports whether a new order was created.
func (s *Store) SubmitOrder(ctx context.Context, sig domain.Signal, entityCode, marketID, eventDate string, quantity, limitPrice int) (domain.Order, bool) {
	key := GenerateIntentKey(sig, entityCode, marketID, eventDate)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byIntent[key]; ok {
		s.log.Info("duplicate order intent, returning existing order",
			"intent_key", key,
			"ticker", existing.Ticker,
			"status", existing.Status,
		)
		return *existing, false
	}

	o := &domain.Order{
		IntentKey:         key,
		Ticker:            sig.Ticker,
		EntityCode:        entityCode,
		MarketID:          marketID,
		EventDate:         eventDate,
		Side:              sig.Side,
		Action:            domain.ActionBuy,
		Quantity:          quantity,
		LimitPrice:        limitPrice,
		Status:            domain.OrderStatusPending,
		RemainingQuantity: quantity,
		CreatedAt:         time.Now().UTC(),
	}
	s.byIntent[key] = o

	if s.durable != nil {
		if err := s.durable.CreateOrderIdempotent(ctx, o); err != nil {
			s.log.Warn("persisting order failed", "intent_key", key, "err", err)
		}
	}

	s.log.Info("order created",
		"intent_key", key,
		"ticker", o.Ticker,
		"entity", entityCode,
		"qty", quantity,
		"limit_price", limitPrice,
	)
	return *o, true
}

// UpdateOrderStatus moves an order to newStatus if that is a legal edge of
// the lifecycle graph. It returns false when the order is unknown or the
// transition is illegal; the order is left untouched in either case.
// Timestamp fields are set only the first time their state is reached, so
// repeated transitions are idempotent on timestamps.
func (s *Store) UpdateOrderStatus(ctx context.Context, intentKey string, newStatus domain.OrderStatus, externalID, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byIntent[intentKey]
	if !ok {
		s.log.Warn("status update for unknown order", "intent_key", intentKey, "status", newStatus)
		return false
	}
	if !o.Status.CanTransition(newStatus) {
		s.log.Warn("rejected illegal status transition",
			"intent_key", intentKey,
			"from", o.Status,
			"to", newStatus,
		)
		return false
	}

	s.applyStatusLocked(o, newStatus)
	if externalID != "" {
		o.ExternalOrderID = externalID
		s.byExternal[externalID] = intentKey
	}
	if message != "" {
		o.StatusMessage = message
	}

	s.persistUpdateLocked(ctx, o)
	return true
}

// applyStatusLocked sets the status and stamps the first entry into each
// timestamped state. Caller holds the write lock.
func (s *Store) applyStatusLocked(o *domain.Order, newStatus domain.OrderStatus) {
	o.Status = newStatus
	now := time.Now().UTC()
	switch newStatus {
	case domain.OrderStatusSubmitted:
		if o.SubmittedAt == nil {
			o.SubmittedAt = &now
		}
	case domain.OrderStatusFilled:
		if o.FilledAt == nil {
			o.FilledAt = &now
		}
	case domain.OrderStatusCancelled:
		if o.CancelledAt == nil {
			o.CancelledAt = &now
		}
	}
}

func (s *Store) persistUpdateLocked(ctx context.Context, o *domain.Order) {
	if s.durable == nil {
		return
	}
	if err := s.durable.UpdateStatus(ctx, o); err != nil {
		s.log.Warn("persisting status update failed", "intent_key", o.IntentKey, "err", err)
	}
}

// GetOrderByIntentKey returns a copy of the order with the given intent key.
func (s *Store) GetOrderByIntentKey(intentKey string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byIntent[intentKey]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

// GetAllOrders returns copies of every order, sorted by creation time.
func (s *Store) GetAllOrders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0, len(s.byIntent))
	for _, o := range s.byIntent {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// GetOrdersByStatus returns copies of all orders in the given status.
func (s *Store) GetOrdersByStatus(status domain.OrderStatus) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Order
	for _, o := range s.byIntent {
		if o.Status == status {
			out = append(out, *o)
		}
	}
	return out
}

// OpenNotional sums the dollar value of unfilled quantity across every
// non-terminal order. The orchestrator gates runs on this aggregate.
func (s *Store) OpenNotional() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, o := range s.byIntent {
		total += o.OpenNotional()
	}
	return total
}

// LoadOpenOrders repopulates the in-memory index from every non-terminal
// order in the durable backend. It enables crash recovery without
// re-deriving intent keys. Returns the number of orders restored.
func (s *Store) LoadOpenOrders(ctx context.Context) (int, error) {
	if s.durable == nil {
		return 0, nil
	}
	orders, err := s.durable.GetOpenOrders(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	restored := 0
	for i := range orders {
		o := orders[i]
		if o.Status.IsTerminal() {
			continue
		}
		if _, ok := s.byIntent[o.IntentKey]; ok {
			continue
		}
		s.byIntent[o.IntentKey] = &o
		if o.ExternalOrderID != "" {
			s.byExternal[o.ExternalOrderID] = o.IntentKey
		}
		restored++
	}
	s.log.Info("restored open orders from durable store", "count", restored)
	return restored, nil
}
