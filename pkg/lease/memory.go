package lease

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker implements Locker within a single process. It is the
// default for the CLI and for tests.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

// Acquire takes the run's lease unless an unexpired holder exists.
func (l *MemoryLocker) Acquire(_ context.Context, runID string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()

	if expiry, ok := l.held[runID]; ok && expiry.After(now) {
		return nil, ErrHeld
	}

	l.held[runID] = now.Add(ttl)

	var once sync.Once

	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()

			delete(l.held, runID)
		})
	}

	return release, nil
}
