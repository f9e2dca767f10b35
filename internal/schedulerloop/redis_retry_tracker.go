package schedulerloop

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// retryKeyPrefix namespaces retry counters within the shared Redis
// keyspace.
const retryKeyPrefix = "scheduler:retry:"

// retryTTL bounds how long a counter survives with no further attempts,
// so a row that eventually succeeds (or is deleted) doesn't leak a key
// forever.
const retryTTL = 24 * time.Hour

// RedisRetryTracker shares attempt counts across scheduler replicas via
// Redis INCR, so a row claimed by a different instance on each retry
// still gets dead-lettered after the same total attempt budget.
type RedisRetryTracker struct {
	client *redis.Client
}

func NewRedisRetryTracker(client *redis.Client) *RedisRetryTracker {
	return &RedisRetryTracker{client: client}
}

func (t *RedisRetryTracker) Increment(ctx context.Context, rowID string) (int, error) {
	key := retryKeyPrefix + rowID
	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr retry counter for %s: %w", rowID, err)
	}
	if n == 1 {
		t.client.Expire(ctx, key, retryTTL)
	}
	return int(n), nil
}

func (t *RedisRetryTracker) Reset(ctx context.Context, rowID string) error {
	if err := t.client.Del(ctx, retryKeyPrefix+rowID).Err(); err != nil {
		return fmt.Errorf("reset retry counter for %s: %w", rowID, err)
	}
	return nil
}
