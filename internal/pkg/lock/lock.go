// Package lock provides a non-blocking single-flight guard.
package lock

import "sync"

// RunGuard ensures at most one holder at a time without blocking the
// second caller. Used to keep two raffle runs from interleaving their
// store writes and announcements.
type RunGuard struct {
	mu   sync.Mutex
	held bool
}

// TryAcquire takes the guard if it is free and reports whether it did.
func (g *RunGuard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return false
	}
	g.held = true
	return true
}

// Release frees the guard. Releasing a free guard is a no-op.
func (g *RunGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held = false
}
