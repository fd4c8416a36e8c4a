// Package risk enforces account-level exposure limits and the emergency
// trading circuit breaker.
package risk

import (
	"log/slog"

	"tempest/internal/domain"
)

// Calculator checks proposed trades against exposure and sizing limits. The
// percentage caps are resolved into absolute dollar caps once, at
// construction. Every check is a pure boolean gate; a breach is reported,
// never raised.
//
// Comparisons use strict greater-than: an exposure exactly at the cap
// passes.
type Calculator struct {
	bankroll           float64
	maxCityExposure    float64 // dollars
	maxClusterExposure float64 // dollars
	maxTradeRisk       float64 // dollars
	maxPositionSize    int     // contracts, hard global ceiling

	log *slog.Logger
}

// NewCalculator resolves the percentage caps against bankroll and returns a
// ready Calculator.
func NewCalculator(bankroll, maxCityPct, maxClusterPct, maxTradeRiskPct float64, maxPositionSize int, log *slog.Logger) *Calculator {
	if log == nil {
		log = slog.Default()
	}
	return &Calculator{
		bankroll:           bankroll,
		maxCityExposure:    bankroll * maxCityPct,
		maxClusterExposure: bankroll * maxClusterPct,
		maxTradeRisk:       bankroll * maxTradeRiskPct,
		maxPositionSize:    maxPositionSize,
		log:                log,
	}
}

// CalculateOpenRisk returns the dollar value at risk across the given
// positions. Callers select the subset (one city, one cluster, the whole
// account).
func (c *Calculator) CalculateOpenRisk(positions []domain.Position) float64 {
	var total float64
	for _, p := range positions {
		total += p.Notional()
	}
	return total
}

// CheckCityExposure reports whether adding newTradeRisk dollars on top of the
// city's current exposure stays within the city cap.
func (c *Calculator) CheckCityExposure(city string, newTradeRisk float64, positions []domain.Position) bool {
	var cityPositions []domain.Position
	for _, p := range positions {
		if p.EntityCode == city {
			cityPositions = append(cityPositions, p)
		}
	}
	current := c.CalculateOpenRisk(cityPositions)
	if current+newTradeRisk > c.maxCityExposure {
		c.log.Warn("city exposure limit breached",
			"city", city,
			"current_exposure", current,
			"new_trade_risk", newTradeRisk,
			"limit", c.maxCityExposure,
		)
		return false
	}
	return true
}

// CheckClusterExposure reports whether adding newTradeRisk dollars on top of
// the cluster's current exposure stays within the cluster cap.
func (c *Calculator) CheckClusterExposure(cluster string, newTradeRisk float64, positions []domain.Position) bool {
	var clusterPositions []domain.Position
	for _, p := range positions {
		if p.Cluster == cluster {
			clusterPositions = append(clusterPositions, p)
		}
	}
	current := c.CalculateOpenRisk(clusterPositions)
	if current+newTradeRisk > c.maxClusterExposure {
		c.log.Warn("cluster exposure limit breached",
			"cluster", cluster,
			"current_exposure", current,
			"new_trade_risk", newTradeRisk,
			"limit", c.maxClusterExposure,
		)
		return false
	}
	return true
}

// CheckTradeSize applies two independent caps to a single trade: dollar risk
// and an absolute contract-count ceiling. Either breach fails the check.
func (c *Calculator) CheckTradeSize(tradeRisk float64, quantity int) bool {
	if tradeRisk > c.maxTradeRisk {
		c.log.Warn("trade risk limit breached",
			"trade_risk", tradeRisk,
			"limit", c.maxTradeRisk,
		)
		return false
	}
	if quantity > c.maxPositionSize {
		c.log.Warn("position size limit breached",
			"quantity", quantity,
			"limit", c.maxPositionSize,
		)
		return false
	}
	return true
}

// MaxAggregate returns the dollar cap corresponding to pct of bankroll. The
// orchestrator uses it for the account-wide notional gate.
func (c *Calculator) MaxAggregate(pct float64) float64 {
	return c.bankroll * pct
}
