package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempest/internal/domain"
)

func goodMarket() domain.Market {
	return domain.Market{
		Ticker: "HIGHNY-26SEP01-B85",
		YesBid: 58,
		YesAsk: 62,
		NoBid:  36,
		NoAsk:  40,
		Volume: 500,
	}
}

func buySignal(maxPrice int) domain.Signal {
	return domain.Signal{
		Ticker:   "HIGHNY-26SEP01-B85",
		Side:     domain.SideYes,
		Decision: domain.DecisionBuy,
		PYes:     0.7,
		MaxPrice: maxPrice,
	}
}

func TestGatesPass(t *testing.T) {
	c := NewSpreadLiquidityChecker()
	ok, reasons := c.CheckAllGates(buySignal(65), goodMarket(), 10)
	assert.True(t, ok)
	assert.Empty(t, reasons)
}

func TestGatesWideSpread(t *testing.T) {
	c := NewSpreadLiquidityChecker()
	m := goodMarket()
	m.YesBid = 40 // 22¢ spread

	ok, reasons := c.CheckAllGates(buySignal(65), m, 10)
	assert.False(t, ok)
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "spread")
}

func TestGatesThinVolume(t *testing.T) {
	c := NewSpreadLiquidityChecker()
	m := goodMarket()
	m.Volume = 10

	ok, reasons := c.CheckAllGates(buySignal(65), m, 10)
	assert.False(t, ok)
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "volume")
}

func TestGatesAskAbovePriceCeiling(t *testing.T) {
	c := NewSpreadLiquidityChecker()
	ok, reasons := c.CheckAllGates(buySignal(60), goodMarket(), 10) // ask 62 > 60
	assert.False(t, ok)
	require.NotEmpty(t, reasons)
	assert.Contains(t, reasons[0], "max price")
}

func TestGatesNoSideUsesNoBook(t *testing.T) {
	c := NewSpreadLiquidityChecker()
	sig := buySignal(65)
	sig.Side = domain.SideNo

	m := goodMarket()
	m.NoBid = 5 // wide NO spread, YES book untouched
	ok, reasons := c.CheckAllGates(sig, m, 10)
	assert.False(t, ok)
	require.NotEmpty(t, reasons)
	assert.Contains(t, reasons[0], "spread")
}

func TestGatesCollectMultipleFailures(t *testing.T) {
	c := NewSpreadLiquidityChecker()
	m := goodMarket()
	m.Volume = 1
	m.YesBid = 30

	ok, reasons := c.CheckAllGates(buySignal(50), m, 0)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, len(reasons), 3)
}
