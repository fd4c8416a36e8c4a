package risk

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"tempest/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestCalculator: $10k bankroll, 5% city, 10% cluster, 2% trade, 100
// contract ceiling -> $500 / $1000 / $200 caps.
func newTestCalculator() *Calculator {
	return NewCalculator(10000, 0.05, 0.10, 0.02, 100, discardLogger())
}

func positionsFixture() []domain.Position {
	return []domain.Position{
		{Ticker: "A", EntityCode: "NYC", Cluster: "northeast", Quantity: 100, EntryPrice: 60}, // $60
		{Ticker: "B", EntityCode: "NYC", Cluster: "northeast", Quantity: 200, EntryPrice: 40}, // $80
		{Ticker: "C", EntityCode: "BOS", Cluster: "northeast", Quantity: 100, EntryPrice: 50}, // $50
		{Ticker: "D", EntityCode: "CHI", Cluster: "midwest", Quantity: 300, EntryPrice: 30},   // $90
	}
}

func TestCalculateOpenRisk(t *testing.T) {
	c := newTestCalculator()
	assert.InDelta(t, 280.0, c.CalculateOpenRisk(positionsFixture()), 1e-9)
	assert.Zero(t, c.CalculateOpenRisk(nil))
}

func TestCheckCityExposure(t *testing.T) {
	c := newTestCalculator()
	positions := positionsFixture()

	// NYC carries $140; $360 more reaches the $500 cap exactly and passes
	// (strict greater-than at the boundary).
	assert.True(t, c.CheckCityExposure("NYC", 360, positions))
	assert.False(t, c.CheckCityExposure("NYC", 360.01, positions))

	// Other cities' positions must not count against NYC.
	assert.True(t, c.CheckCityExposure("BOS", 400, positions))
}

func TestCheckClusterExposure(t *testing.T) {
	c := newTestCalculator()
	positions := positionsFixture()

	// northeast carries $190 against the $1000 cluster cap.
	assert.True(t, c.CheckClusterExposure("northeast", 810, positions))
	assert.False(t, c.CheckClusterExposure("northeast", 810.01, positions))
	assert.True(t, c.CheckClusterExposure("midwest", 900, positions))
}

func TestCheckTradeSize(t *testing.T) {
	c := newTestCalculator()

	assert.True(t, c.CheckTradeSize(200, 100)) // both exactly at the cap
	assert.False(t, c.CheckTradeSize(200.01, 10), "dollar cap breached")
	assert.False(t, c.CheckTradeSize(50, 101), "contract ceiling breached")
	assert.False(t, c.CheckTradeSize(200.01, 101))
}

func TestMaxAggregate(t *testing.T) {
	c := newTestCalculator()
	assert.InDelta(t, 2500.0, c.MaxAggregate(0.25), 1e-9)
}
