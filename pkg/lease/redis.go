package lease

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "maestro:run-lease:"

// releaseScript deletes the lease only when still owned by the caller, so
// a lease that expired and was re-acquired elsewhere is never clobbered.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// RedisLocker implements Locker over a shared Redis instance, making the
// lease hold across multiple processes.
type RedisLocker struct {
	client redis.UniversalClient
}

// NewRedisLocker creates a locker backed by client.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire takes the run's lease with SET NX and a TTL.
func (l *RedisLocker) Acquire(ctx context.Context, runID string, ttl time.Duration) (func(), error) {
	key := keyPrefix + runID
	owner := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrHeld
	}

	release := func() {
		// Release is best-effort: TTL expiry reclaims abandoned leases.
		_, _ = releaseScript.Run(context.Background(), l.client, []string{key}, owner).Result()
	}

	return release, nil
}
