package calendar

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight is returned by a Guard when the appointment already has a
// reschedule in progress.
var ErrInFlight = errors.New("reschedule already in flight")

// Guard provides single-flight protection per appointment id. Acquire
// returns ErrInFlight when the id is held; release must be called once the
// reschedule finishes.
type Guard interface {
	Acquire(ctx context.Context, id string) (release func(), err error)
}

// MemoryGuard is a process-local Guard.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryGuard creates an empty MemoryGuard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

// Acquire marks id as in flight.
func (g *MemoryGuard) Acquire(_ context.Context, id string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[id]; ok {
		return nil, ErrInFlight
	}
	g.held[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, id)
			g.mu.Unlock()
		})
	}, nil
}

// InFlight reports whether id is currently held.
func (g *MemoryGuard) InFlight(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[id]
	return ok
}
