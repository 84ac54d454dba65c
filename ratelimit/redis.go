package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares windows between server instances. The key's TTL is
// the window: it is set on the first hit and the counter disappears with it.
type RedisLimiter struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	return &RedisLimiter{redis: client, prefix: prefix, now: time.Now}
}

func (l *RedisLimiter) Admit(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	k := l.prefix + key
	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.PExpire(ctx, k, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}

	ttl, err := l.redis.PTTL(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	// A counter left without expiry would never reset.
	if ttl < 0 {
		if err := l.redis.PExpire(ctx, k, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
		ttl = window
	}

	now := l.now()
	return decide(count, limit, now, now.Add(ttl)), nil
}
