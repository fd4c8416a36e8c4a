package risk

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// CircuitBreaker halts new trading when the daily loss limit or the reject
// rate threshold is breached. Both trips are one-way and sticky: only an
// explicit ResetPause clears them. State is mutex-guarded because it is read
// from the orchestrator's gating path and written from per-entity reject
// callbacks.
type CircuitBreaker struct {
	mu          sync.Mutex
	paused      bool
	pauseReason string
	rejects     []time.Time

	maxDailyLoss float64
	maxRejects   int
	window       time.Duration

	now func() time.Time
	log *slog.Logger
}

// NewCircuitBreaker creates a breaker that trips when total daily P&L drops
// below -maxDailyLoss, or when maxRejects order rejects accumulate within
// the sliding window.
func NewCircuitBreaker(maxDailyLoss float64, maxRejects, rejectWindowMinutes int, log *slog.Logger) *CircuitBreaker {
	if log == nil {
		log = slog.Default()
	}
	return &CircuitBreaker{
		maxDailyLoss: maxDailyLoss,
		maxRejects:   maxRejects,
		window:       time.Duration(rejectWindowMinutes) * time.Minute,
		now:          time.Now,
		log:          log,
	}
}

// CheckDailyLossLimit evaluates total P&L against the daily loss limit and
// reports whether trading may continue. The first breach trips the breaker;
// a later improvement in P&L does not un-pause it.
func (cb *CircuitBreaker) CheckDailyLossLimit(realizedPnL, unrealizedPnL float64) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.paused {
		return false
	}

	total := realizedPnL + unrealizedPnL
	if total < -cb.maxDailyLoss {
		cb.pauseLocked(fmt.Sprintf("daily loss limit breached: total P&L $%.2f exceeds -$%.2f", total, cb.maxDailyLoss))
		return false
	}
	return true
}

// TrackOrderRejects appends a reject timestamp to the sliding window, prunes
// entries older than the window, and trips the breaker when the in-window
// count reaches the threshold. It returns the current in-window count.
func (cb *CircuitBreaker) TrackOrderRejects(ts time.Time) int {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cutoff := cb.now().Add(-cb.window)
	kept := cb.rejects[:0]
	for _, r := range cb.rejects {
		if r.After(cutoff) {
			kept = append(kept, r)
		}
	}
	cb.rejects = append(kept, ts)

	count := len(cb.rejects)
	if !cb.paused && count >= cb.maxRejects {
		cb.pauseLocked(fmt.Sprintf("reject rate limit breached: %d rejects within %s", count, cb.window))
	}
	return count
}

// IsPaused returns the paused flag and its reason.
func (cb *CircuitBreaker) IsPaused() (bool, string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.paused, cb.pauseReason
}

// ResetPause clears the paused flag, the reason, and the reject window. It
// is an explicit operator action, never called automatically.
func (cb *CircuitBreaker) ResetPause() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.paused = false
	cb.pauseReason = ""
	cb.rejects = nil
	cb.log.Info("circuit breaker reset by operator")
}

func (cb *CircuitBreaker) pauseLocked(reason string) {
	cb.paused = true
	cb.pauseReason = reason
	cb.log.Error("circuit breaker tripped", "reason", reason)
}
