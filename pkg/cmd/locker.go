package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/maestrohq/maestro/pkg/lease"
)

// NewLocker creates a run lease locker. A non-empty redis URL gets the
// Redis-backed locker so leases hold across processes; otherwise locking is
// in-process only.
func NewLocker(redisURL string) (lease.Locker, error) {
	if redisURL == "" {
		return lease.NewMemoryLocker(), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return lease.NewRedisLocker(redis.NewClient(opts)), nil
}
