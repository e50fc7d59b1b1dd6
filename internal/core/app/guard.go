package app

import "sync"

// SessionGuard serializes authentication-state changes on a shared adapter
// session against in-flight sends. Authenticate takes the write side; plain
// sends to an already-authenticated session run concurrently on the read
// side.
type SessionGuard struct {
	mu sync.RWMutex
}

func NewSessionGuard() *SessionGuard {
	return &SessionGuard{}
}

func (g *SessionGuard) Send(fn func() error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn()
}

func (g *SessionGuard) Authenticate(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}
