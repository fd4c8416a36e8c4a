package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderStatusPending, OrderStatusSubmitted, true},
		{OrderStatusPending, OrderStatusFilled, true},
		{OrderStatusPending, OrderStatusRejected, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusResting, false},
		{OrderStatusPending, OrderStatusClosed, false},
		{OrderStatusSubmitted, OrderStatusResting, true},
		{OrderStatusSubmitted, OrderStatusPartiallyFilled, true},
		{OrderStatusSubmitted, OrderStatusFilled, true},
		{OrderStatusSubmitted, OrderStatusRejected, true},
		{OrderStatusSubmitted, OrderStatusCancelled, true},
		{OrderStatusSubmitted, OrderStatusPending, false},
		{OrderStatusResting, OrderStatusPartiallyFilled, true},
		{OrderStatusResting, OrderStatusFilled, true},
		{OrderStatusResting, OrderStatusCancelled, true},
		{OrderStatusResting, OrderStatusRejected, false},
		{OrderStatusPartiallyFilled, OrderStatusFilled, true},
		{OrderStatusPartiallyFilled, OrderStatusCancelled, true},
		{OrderStatusPartiallyFilled, OrderStatusResting, false},
		{OrderStatusFilled, OrderStatusClosed, true},
		{OrderStatusFilled, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusRejected, OrderStatusSubmitted, false},
		{OrderStatusClosed, OrderStatusFilled, false},
	}

	for _, tc := range cases {
		got := tc.from.CanTransition(tc.to)
		assert.Equalf(t, tc.ok, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusRejected.IsTerminal())
	assert.True(t, OrderStatusClosed.IsTerminal())
	assert.False(t, OrderStatusFilled.IsTerminal()) // FILLED can still close
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusResting.IsTerminal())
}

func TestOpenNotional(t *testing.T) {
	o := &Order{
		Status:            OrderStatusResting,
		RemainingQuantity: 40,
		LimitPrice:        55,
	}
	assert.InDelta(t, 22.0, o.OpenNotional(), 1e-9)

	o.Status = OrderStatusCancelled
	assert.Zero(t, o.OpenNotional())
}

func TestNewSignalValidation(t *testing.T) {
	s, err := NewSignal("HIGHNY-26SEP01-B85", SideYes, DecisionBuy, 0.71, 0.09, 64)
	require.NoError(t, err)
	assert.Equal(t, DecisionBuy, s.Decision)

	_, err = NewSignal("", SideYes, DecisionBuy, 0.5, 0, 50)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ticker", verr.Field)

	_, err = NewSignal("T", Side("maybe"), DecisionBuy, 0.5, 0, 50)
	require.ErrorAs(t, err, &verr)

	_, err = NewSignal("T", SideNo, DecisionBuy, 1.3, 0, 50)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "p_yes", verr.Field)

	_, err = NewSignal("T", SideNo, DecisionBuy, 0.5, 0, 120)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "max_price", verr.Field)
}
