package selection

import (
	"sync"
	"time"
)

// DefaultThrottleInterval bounds how often intermediate drag events recompute
// selection geometry.
const DefaultThrottleInterval = 50 * time.Millisecond

// Throttle rate-limits geometry recomputation while the user drags a
// selection. The final mouse-up is never throttled: callers run Extract
// directly and call Reset.
type Throttle struct {
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// Allow reports whether an intermediate event at now should be processed.
func (t *Throttle) Allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	if !t.last.IsZero() && now.Sub(t.last) < interval {
		return false
	}
	t.last = now
	return true
}

// Reset forgets the last processed event so the next drag starts fresh.
func (t *Throttle) Reset() {
	t.mu.Lock()
	t.last = time.Time{}
	t.mu.Unlock()
}
