package signal

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/nshein/duet/internal/core"
)

// CooldownLimiter enforces a minimum interval between consecutive
// skip/exclude gestures from the same connection.
type CooldownLimiter struct {
	mu       sync.Mutex
	last     map[core.ConnID]time.Time
	interval time.Duration
	clock    clock.Clock
}

func NewCooldownLimiter(interval time.Duration) *CooldownLimiter {
	return newCooldownLimiter(interval, clock.New())
}

func newCooldownLimiter(interval time.Duration, clk clock.Clock) *CooldownLimiter {
	return &CooldownLimiter{
		last:     make(map[core.ConnID]time.Time),
		interval: interval,
		clock:    clk,
	}
}

// Allow reports whether the action may run now, recording the attempt time
// when it may.
func (l *CooldownLimiter) Allow(id core.ConnID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if last, ok := l.last[id]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.last[id] = now
	return true
}

// Forget drops the connection's record on disconnect.
func (l *CooldownLimiter) Forget(id core.ConnID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.last, id)
}
