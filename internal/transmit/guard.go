package transmit

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Guard serializes writers of one stream. Release must follow every Acquire
// that returned nil, exactly once.
type Guard interface {
	Acquire(ctx context.Context) error
	Release()
}

type semaphoreGuard struct {
	sem *semaphore.Weighted
}

// NewGuard returns a counting guard with a single permit.
func NewGuard() Guard {
	return &semaphoreGuard{sem: semaphore.NewWeighted(1)}
}

func (g *semaphoreGuard) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *semaphoreGuard) Release() {
	g.sem.Release(1)
}
