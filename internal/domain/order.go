package domain

import "time"

// OrderStatus tracks the lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusSubmitted       OrderStatus = "SUBMITTED"
	OrderStatusResting         OrderStatus = "RESTING"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusClosed          OrderStatus = "CLOSED"
)

// transitions is the set of legal status edges. Absent entries are illegal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusSubmitted,
		OrderStatusFilled,
		OrderStatusRejected,
		OrderStatusCancelled,
	},
	OrderStatusSubmitted: {
		OrderStatusResting,
		OrderStatusPartiallyFilled,
		OrderStatusFilled,
		OrderStatusRejected,
		OrderStatusCancelled,
	},
	OrderStatusResting: {
		OrderStatusPartiallyFilled,
		OrderStatusFilled,
		OrderStatusCancelled,
	},
	OrderStatusPartiallyFilled: {
		OrderStatusFilled,
		OrderStatusCancelled,
	},
	OrderStatusFilled: {
		OrderStatusClosed,
	},
}

// CanTransition reports whether moving from one status to another is a legal
// edge of the lifecycle graph.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusRejected, OrderStatusClosed:
		return true
	default:
		return false
	}
}

// Order is the system's record of a single trade intent and its execution
// state. Orders are created once per intent key and never deleted; terminal
// orders are retained for audit.
type Order struct {
	// IntentKey is the stable idempotency key derived from the trade shape.
	IntentKey string
	// ExternalOrderID is the venue-assigned identifier, empty until the
	// venue acknowledges the order.
	ExternalOrderID string

	Ticker     string
	EntityCode string
	MarketID   string
	EventDate  string
	Side       Side
	Action     Action
	Quantity   int
	LimitPrice int // cents

	Status            OrderStatus
	FilledQuantity    int
	RemainingQuantity int
	AvgFillPrice      float64 // cents, meaningful only when FilledQuantity > 0

	StatusMessage string

	CreatedAt   time.Time
	SubmittedAt *time.Time
	FilledAt    *time.Time
	CancelledAt *time.Time
}

// OpenNotional returns the dollar value of the order's unfilled quantity at
// its limit price. Zero for terminal orders.
func (o *Order) OpenNotional() float64 {
	if o.Status.IsTerminal() {
		return 0
	}
	return float64(o.RemainingQuantity) * float64(o.LimitPrice) / 100.0
}
