// Package builtins contains the strategy implementations shipped with the
// trader.
package builtins

import (
	"context"
	"math"

	"tempest/internal/domain"
	"tempest/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*Threshold)(nil)

// Threshold compares a logistic estimate of the contract resolving YES
// against the market's implied probability and signals BUY when the edge and
// confidence clear the configured thresholds.
type Threshold struct {
	// MinEdge is the minimum model-vs-market probability gap to trade.
	MinEdge float64
	// MinConfidence is the minimum model probability to trade the YES side
	// (symmetrically, 1-p for the NO side).
	MinConfidence float64
	// Scale controls how fast the probability saturates as the forecast
	// moves away from the strike, in the forecast's units.
	Scale float64
	// EdgeBuffer is subtracted from the model's fair price to form the
	// limit price, in cents.
	EdgeBuffer int
}

// NewThreshold returns a Threshold strategy with sane defaults for daily
// high-temperature contracts.
func NewThreshold() *Threshold {
	return &Threshold{
		MinEdge:       0.05,
		MinConfidence: 0.60,
		Scale:         3.0,
		EdgeBuffer:    2,
	}
}

// Name returns "threshold".
func (s *Threshold) Name() string {
	return "threshold"
}

// Evaluate prices the market from the forecast and emits BUY or HOLD.
func (s *Threshold) Evaluate(_ context.Context, weather domain.WeatherContext, market domain.Market) (domain.Signal, error) {
	pYes := s.probability(weather.ForecastHigh, market.Strike)

	// Implied probability from the ask midpoint of the side we would take.
	impliedYes := float64(market.YesAsk) / 100.0

	side := domain.SideYes
	confidence := pYes
	edge := pYes - impliedYes
	if pYes < 0.5 {
		side = domain.SideNo
		confidence = 1 - pYes
		impliedNo := float64(market.NoAsk) / 100.0
		edge = (1 - pYes) - impliedNo
	}

	decision := domain.DecisionHold
	if edge >= s.MinEdge && confidence >= s.MinConfidence && !weather.Stale {
		decision = domain.DecisionBuy
	}

	maxPrice := int(confidence*100) - s.EdgeBuffer
	if maxPrice < 1 {
		maxPrice = 1
	}
	if maxPrice > 99 {
		maxPrice = 99
	}

	return domain.NewSignal(market.Ticker, side, decision, pYes, edge, maxPrice)
}

// probability is a logistic curve over the forecast-to-strike distance.
func (s *Threshold) probability(forecastHigh, strike float64) float64 {
	if s.Scale <= 0 {
		s.Scale = 3.0
	}
	return 1.0 / (1.0 + math.Exp(-(forecastHigh-strike)/s.Scale))
}
