package team

import (
	"fmt"
	"sync"
)

// CallLimiter enforces a maximum number of allowed model calls per turn.
type CallLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCallLimiter creates a new limiter with a max number of calls.
// If max == 0, unlimited calls are allowed.
func NewCallLimiter(max int) *CallLimiter {
	return &CallLimiter{max: max}
}

// Increment increases the call counter and returns an error if the limit is exceeded.
func (cl *CallLimiter) Increment() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.count++
	if cl.max > 0 && cl.count > cl.max {
		return fmt.Errorf("exceeded max model calls: %d", cl.max)
	}

	return nil
}

// Count returns the current number of calls made.
func (cl *CallLimiter) Count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	return cl.count
}

// Remaining returns how many calls are left before hitting the limit.
func (cl *CallLimiter) Remaining() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.max == 0 {
		return -1 // unlimited
	}

	return cl.max - cl.count
}
