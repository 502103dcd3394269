package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease lock shared by every process talking to the same Redis.
// The lease must outlive the store timeout, otherwise a slow holder can lose
// the lock mid-mutation.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

// NewRedis creates a Redis lock. Zero durations fall back to 5s lease and 10ms poll.
func NewRedis(client redis.UniversalClient, ttl, retry time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if retry <= 0 {
		retry = 10 * time.Millisecond
	}
	return &Redis{client: client, ttl: ttl, retry: retry, prefix: "lock:"}
}

func (l *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %q: %w", key, err)
		}
		if ok {
			return func() { l.release(k, token) }, nil
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("acquire lock %q: %w", key, ctx.Err())
		case <-timer.C:
		}
	}
}

func (l *Redis) release(key, token string) {
	// caller's ctx may already be done; the lease expires anyway if this fails
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}
