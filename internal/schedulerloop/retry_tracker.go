package schedulerloop

import (
	"context"
	"sync"
)

// RetryTracker counts delivery attempts per row so the loop can
// distinguish a row that is merely slow to succeed from one that has
// exhausted its retry budget and belongs in the dead-letter path. It is
// keyed by row ID alone, not by (row ID, attempt), since a row is
// reclaimed and retried as a whole.
type RetryTracker interface {
	// Increment records one more attempt at rowID and returns the new
	// total.
	Increment(ctx context.Context, rowID string) (int, error)
	// Reset clears rowID's counter, called after a successful publish.
	Reset(ctx context.Context, rowID string) error
}

// InMemoryRetryTracker is the default tracker: adequate for a single
// scheduler instance, but attempt counts reset on restart and aren't
// shared across replicas. RedisRetryTracker exists for the
// multi-instance case.
type InMemoryRetryTracker struct {
	mu       sync.Mutex
	attempts map[string]int
}

func NewInMemoryRetryTracker() *InMemoryRetryTracker {
	return &InMemoryRetryTracker{attempts: make(map[string]int)}
}

func (t *InMemoryRetryTracker) Increment(_ context.Context, rowID string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts[rowID]++
	return t.attempts[rowID], nil
}

func (t *InMemoryRetryTracker) Reset(_ context.Context, rowID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, rowID)
	return nil
}
