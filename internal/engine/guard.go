package engine

import (
	"sync"
	"time"
)

// DefaultGrace is how long local capture stays suppressed after a remote
// update is applied to the clipboard.
const DefaultGrace = 2 * time.Second

// Guard is the anti-loopback suppression window. While active, the local
// change detector ignores clipboard events, so a remote-applied write cannot
// be observed as a new local change and re-uploaded.
//
// Arm overwrites any prior window; suppression periods do not stack. The
// mutex matters because the watch callback and the poll ticker may fire on
// different goroutines.
type Guard struct {
	mu        sync.Mutex
	skipUntil time.Time
	now       func() time.Time
}

// NewGuard returns a disarmed guard.
func NewGuard() *Guard {
	return &Guard{now: time.Now}
}

// Arm suppresses local capture until now + d.
func (g *Guard) Arm(d time.Duration) {
	g.mu.Lock()
	g.skipUntil = g.now().Add(d)
	g.mu.Unlock()
}

// Active reports whether the suppression window is still open.
func (g *Guard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now().Before(g.skipUntil)
}
