package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyLossTripIsSticky(t *testing.T) {
	cb := NewCircuitBreaker(250, 5, 15, discardLogger())

	assert.True(t, cb.CheckDailyLossLimit(-100, -50), "above the limit, trading continues")

	assert.False(t, cb.CheckDailyLossLimit(-200, -100), "total -300 breaches -250")
	paused, reason := cb.IsPaused()
	require.True(t, paused)
	assert.Contains(t, reason, "daily loss limit")

	// A recovery in P&L does not clear the pause.
	assert.False(t, cb.CheckDailyLossLimit(500, 200))
	paused, _ = cb.IsPaused()
	assert.True(t, paused)

	cb.ResetPause()
	paused, reason = cb.IsPaused()
	assert.False(t, paused)
	assert.Empty(t, reason)
	assert.True(t, cb.CheckDailyLossLimit(0, 0))
}

func TestDailyLossBoundary(t *testing.T) {
	cb := NewCircuitBreaker(250, 5, 15, discardLogger())

	// Exactly at the limit passes; the trip requires going below it.
	assert.True(t, cb.CheckDailyLossLimit(-250, 0))
	assert.False(t, cb.CheckDailyLossLimit(-250.01, 0))
}

func TestRejectWindowTrips(t *testing.T) {
	cb := NewCircuitBreaker(250, 5, 15, discardLogger())
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return base }

	for i := 0; i < 4; i++ {
		count := cb.TrackOrderRejects(base.Add(time.Duration(i) * time.Minute))
		assert.Equal(t, i+1, count)
		paused, _ := cb.IsPaused()
		assert.False(t, paused)
	}

	count := cb.TrackOrderRejects(base.Add(4 * time.Minute))
	assert.Equal(t, 5, count)
	paused, reason := cb.IsPaused()
	require.True(t, paused)
	assert.Contains(t, reason, "reject rate")
}

func TestRejectWindowPrunesOldEntries(t *testing.T) {
	cb := NewCircuitBreaker(250, 5, 15, discardLogger())
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	// Four rejects early in the hour.
	cb.now = func() time.Time { return base }
	for i := 0; i < 4; i++ {
		cb.TrackOrderRejects(base.Add(time.Duration(i) * time.Second))
	}

	// Twenty minutes later those have aged out of the 15-minute window, so
	// the next reject counts as 1 and nothing trips.
	later := base.Add(20 * time.Minute)
	cb.now = func() time.Time { return later }
	count := cb.TrackOrderRejects(later)
	assert.Equal(t, 1, count)
	paused, _ := cb.IsPaused()
	assert.False(t, paused)
}

func TestResetClearsRejectWindow(t *testing.T) {
	cb := NewCircuitBreaker(250, 2, 15, discardLogger())
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return base }

	cb.TrackOrderRejects(base)
	cb.TrackOrderRejects(base.Add(time.Second))
	paused, _ := cb.IsPaused()
	require.True(t, paused)

	cb.ResetPause()
	count := cb.TrackOrderRejects(base.Add(2 * time.Second))
	assert.Equal(t, 1, count, "reset must clear the reject window")
}
