package venue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempest/internal/domain"
)

func TestSimulatorCreateOrderFillsImmediately(t *testing.T) {
	sim := NewSimulator()
	ctx := context.Background()

	extID, err := sim.CreateOrder(ctx, OrderRequest{
		ClientOrderID: "c-1",
		Ticker:        "HIGHNY-26SEP01-B85",
		Side:          domain.SideYes,
		Action:        domain.ActionBuy,
		Quantity:      10,
		LimitPrice:    60,
	})
	require.NoError(t, err)
	require.NotEmpty(t, extID)

	fills, err := sim.GetFills(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, extID, fills[0].ExternalOrderID)
	assert.Equal(t, 10, fills[0].Quantity)
	assert.Equal(t, 60, fills[0].Price)
	assert.Len(t, sim.Orders(), 1)
}

func TestSimulatorMarkets(t *testing.T) {
	sim := NewSimulator()
	sim.SetMarkets("HIGHNY", []domain.Market{{ID: "m1", Ticker: "HIGHNY-26SEP01-B85"}})

	got, err := sim.GetMarkets(context.Background(), "HIGHNY")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)

	empty, err := sim.GetMarkets(context.Background(), "HIGHCHI")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
