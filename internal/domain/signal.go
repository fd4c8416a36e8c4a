package domain

import "fmt"

// Decision is a strategy's verdict for a market.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionHold Decision = "HOLD"
)

// ValidationError reports a malformed signal rejected at construction.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid signal: %s %s", e.Field, e.Reason)
}

// Signal is a strategy's immutable assessment of a single market.
type Signal struct {
	Ticker   string
	Side     Side
	Decision Decision
	PYes     float64 // model probability of YES resolving, [0, 1]
	Edge     float64 // model probability minus market implied probability
	MaxPrice int     // highest acceptable limit price, cents
}

// NewSignal validates and constructs a Signal. Malformed inputs are rejected
// here so downstream components never see an inconsistent signal.
func NewSignal(ticker string, side Side, decision Decision, pYes, edge float64, maxPrice int) (Signal, error) {
	if ticker == "" {
		return Signal{}, &ValidationError{Field: "ticker", Reason: "must not be empty"}
	}
	if side != SideYes && side != SideNo {
		return Signal{}, &ValidationError{Field: "side", Reason: fmt.Sprintf("unknown value %q", side)}
	}
	if decision != DecisionBuy && decision != DecisionHold {
		return Signal{}, &ValidationError{Field: "decision", Reason: fmt.Sprintf("unknown value %q", decision)}
	}
	if pYes < 0 || pYes > 1 {
		return Signal{}, &ValidationError{Field: "p_yes", Reason: "must be within [0, 1]"}
	}
	if maxPrice < 0 || maxPrice > 100 {
		return Signal{}, &ValidationError{Field: "max_price", Reason: "must be within [0, 100] cents"}
	}
	return Signal{
		Ticker:   ticker,
		Side:     side,
		Decision: decision,
		PYes:     pYes,
		Edge:     edge,
		MaxPrice: maxPrice,
	}, nil
}
