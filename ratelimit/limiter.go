// Package ratelimit implements fixed-window request counters keyed by
// identity. A window opens on the first request after the previous one
// ended and admits up to limit requests; bursts straddling a boundary can
// therefore reach twice the limit.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrLimiterUnavailable = errors.New("rate limiter unavailable")

// Decision describes the outcome of one Admit call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter counts a request against key and decides whether to admit it.
type Limiter interface {
	Admit(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

func decide(count int64, limit int, now, resetAt time.Time) Decision {
	d := Decision{
		Allowed: count <= int64(limit),
		Limit:   limit,
		ResetAt: resetAt,
	}
	if remaining := int64(limit) - count; remaining > 0 {
		d.Remaining = int(remaining)
	}
	if !d.Allowed {
		d.RetryAfter = resetAt.Sub(now)
		if d.RetryAfter < 0 {
			d.RetryAfter = 0
		}
	}
	return d
}
