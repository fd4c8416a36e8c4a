// Package gates runs pre-submission execution checks — spread, liquidity,
// and price — against a candidate signal.
package gates

import (
	"fmt"

	"tempest/internal/domain"
)

// Checker is the gate contract the trading cycle consumes.
type Checker interface {
	// CheckAllGates reports whether the candidate passes every gate, with
	// a human-readable reason per failed gate.
	CheckAllGates(sig domain.Signal, market domain.Market, quantity int) (bool, []string)
}

// Compile-time interface check.
var _ Checker = (*SpreadLiquidityChecker)(nil)

// SpreadLiquidityChecker is the default gate set: reject wide spreads, thin
// markets, and asks above the signal's price ceiling.
type SpreadLiquidityChecker struct {
	// MaxSpreadCents is the widest acceptable bid/ask spread.
	MaxSpreadCents int
	// MinVolume is the minimum contract volume traded in the market.
	MinVolume int
}

// NewSpreadLiquidityChecker returns a checker with defaults tuned for daily
// weather markets.
func NewSpreadLiquidityChecker() *SpreadLiquidityChecker {
	return &SpreadLiquidityChecker{
		MaxSpreadCents: 10,
		MinVolume:      100,
	}
}

// CheckAllGates runs every gate and collects the failures. All gates are
// evaluated even after the first failure so the caller sees the full
// picture.
func (c *SpreadLiquidityChecker) CheckAllGates(sig domain.Signal, market domain.Market, quantity int) (bool, []string) {
	var reasons []string

	spread := market.Spread()
	if sig.Side == domain.SideNo {
		spread = market.NoAsk - market.NoBid
	}
	if spread > c.MaxSpreadCents {
		reasons = append(reasons, fmt.Sprintf("spread %d¢ exceeds max %d¢", spread, c.MaxSpreadCents))
	}

	if market.Volume < c.MinVolume {
		reasons = append(reasons, fmt.Sprintf("volume %d below min %d", market.Volume, c.MinVolume))
	}

	ask := market.YesAsk
	if sig.Side == domain.SideNo {
		ask = market.NoAsk
	}
	if ask > sig.MaxPrice {
		reasons = append(reasons, fmt.Sprintf("ask %d¢ above signal max price %d¢", ask, sig.MaxPrice))
	}
	if ask <= 0 {
		reasons = append(reasons, "no ask liquidity")
	}

	if quantity <= 0 {
		reasons = append(reasons, "non-positive quantity")
	}

	return len(reasons) == 0, reasons
}
