package analysis

import "context"

// Gate is a counting admission gate bounding simultaneous external model
// calls. A slot is held only for the duration of one call, never across the
// whole pipeline.
type Gate struct {
	slots chan struct{}
}

func NewGate(limit int) *Gate {
	if limit <= 0 {
		limit = 1
	}
	return &Gate{slots: make(chan struct{}, limit)}
}

// Acquire blocks until a slot is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns one slot. Must be paired with a successful Acquire.
func (g *Gate) Release() {
	<-g.slots
}

// Limit reports the configured capacity.
func (g *Gate) Limit() int {
	return cap(g.slots)
}

// Available reports how many slots are currently free.
func (g *Gate) Available() int {
	return cap(g.slots) - len(g.slots)
}
