package client

import (
	"math"
	"sync/atomic"
)

// maxActions bounds the outstanding critical-action count; Register
// refuses once the counter would overflow past it.
const maxActions = math.MaxUint32

// actionCounter tracks outstanding application-declared critical actions
// that must finish before a pending restart may proceed. It is a thin
// wrapper over atomic.Uint32 rather than a mutex-guarded int: deregister
// must observe, in one atomic step, whether the count it just produced is
// zero, and a compare-and-swap retry loop gives that without a lock.
type actionCounter struct {
	n atomic.Uint32
}

// Register increments the count and reports the new value, or false if the
// count is already at maxActions.
func (c *actionCounter) Register() (uint32, bool) {
	for {
		cur := c.n.Load()
		if cur >= maxActions {
			return 0, false
		}
		next := cur + 1
		if c.n.CompareAndSwap(cur, next) {
			return next, true
		}
	}
}

// Deregister decrements the count and reports the new value plus whether
// this call drove it to exactly zero. Calling Deregister more times than
// Register is a caller bug; it saturates at zero rather than wrapping.
func (c *actionCounter) Deregister() (n uint32, reachedZero bool) {
	for {
		cur := c.n.Load()
		if cur == 0 {
			return 0, false
		}
		next := cur - 1
		if c.n.CompareAndSwap(cur, next) {
			return next, next == 0
		}
	}
}

// Count returns the current outstanding-action count.
func (c *actionCounter) Count() uint32 {
	return c.n.Load()
}
