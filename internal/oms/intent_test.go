package oms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempest/internal/domain"
)

func testSignal(ticker string) domain.Signal {
	return domain.Signal{
		Ticker:   ticker,
		Side:     domain.SideYes,
		Decision: domain.DecisionBuy,
		PYes:     0.7,
		Edge:     0.08,
		MaxPrice: 65,
	}
}

func TestGenerateIntentKeyDeterministic(t *testing.T) {
	sig := testSignal("HIGHNY-26SEP01-B85")

	k1 := GenerateIntentKey(sig, "NYC", "mkt-1", "2026-09-01")
	k2 := GenerateIntentKey(sig, "NYC", "mkt-1", "2026-09-01")
	assert.Equal(t, k1, k2)
	require.Len(t, k1, 16)
}

func TestGenerateIntentKeyDistinguishesInputs(t *testing.T) {
	sig := testSignal("HIGHNY-26SEP01-B85")
	base := GenerateIntentKey(sig, "NYC", "mkt-1", "2026-09-01")

	assert.NotEqual(t, base, GenerateIntentKey(sig, "CHI", "mkt-1", "2026-09-01"), "entity code must change the key")
	assert.NotEqual(t, base, GenerateIntentKey(sig, "NYC", "mkt-2", "2026-09-01"), "market id must change the key")
	assert.NotEqual(t, base, GenerateIntentKey(sig, "NYC", "mkt-1", "2026-09-02"), "event date must change the key")

	noSide := sig
	noSide.Side = domain.SideNo
	assert.NotEqual(t, base, GenerateIntentKey(noSide, "NYC", "mkt-1", "2026-09-01"), "side must change the key")
}

func TestGenerateIntentKeyIgnoresNonShapeFields(t *testing.T) {
	sig := testSignal("HIGHNY-26SEP01-B85")
	base := GenerateIntentKey(sig, "NYC", "mkt-1", "2026-09-01")

	tweaked := sig
	tweaked.PYes = 0.93
	tweaked.Edge = 0.2
	tweaked.MaxPrice = 80
	assert.Equal(t, base, GenerateIntentKey(tweaked, "NYC", "mkt-1", "2026-09-01"))
}
