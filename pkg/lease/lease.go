// Package lease provides per-run mutual exclusion so execute and resume
// never interleave for the same run, including across processes.
package lease

import (
	"context"
	"errors"
	"time"
)

// ErrHeld indicates another holder currently owns the run's lease.
var ErrHeld = errors.New("run lease already held")

// Locker grants exclusive, time-bounded leases keyed by run ID. Release
// functions are safe to call once; an expired lease releases itself.
type Locker interface {
	Acquire(ctx context.Context, runID string, ttl time.Duration) (release func(), err error)
}
