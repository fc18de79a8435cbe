// Package ratelimit implements the Redis-backed sliding-window limiter,
// anti-scan blocked-prefix tracking, and monthly usage counters used by
// the admission pipeline. Counters are incremented atomically and never
// decremented: a double-increment under a network retry is tolerable, a
// missed decrement would silently grant a free request.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter enforces per-key sliding-window rate limits and anti-scan
// blocking over a shared Redis instance.
type Limiter struct {
	redis  *redis.Client
	window time.Duration
}

// New creates a Limiter with the given sliding-window duration.
func New(client *redis.Client, window time.Duration) *Limiter {
	return &Limiter{redis: client, window: window}
}

// Allow increments the per-(keyID, current-minute) counter and reports
// whether the request is within limit. The key expires at the end of the
// window so stale buckets are reclaimed automatically.
func (l *Limiter) Allow(ctx context.Context, keyID string, limit int) (allowed bool, current int, err error) {
	bucket := fmt.Sprintf("ratelimit:%s:%d", keyID, time.Now().Unix()/int64(l.window.Seconds()))

	count, err := l.redis.Incr(ctx, bucket).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit: incr: %w", err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, bucket, l.window).Err(); err != nil {
			return false, int(count), fmt.Errorf("ratelimit: expire: %w", err)
		}
	}
	return int(count) <= limit, int(count), nil
}

// IPAllow applies the secondary per-IP rate limit, keyed independently of
// the credential-based bucket.
func (l *Limiter) IPAllow(ctx context.Context, ip string, limit int) (allowed bool, current int, err error) {
	return l.Allow(ctx, "ip:"+ip, limit)
}

// scanFailureThreshold is the number of failed key validations within one
// rolling window that trips the anti-scan block for a prefix.
const scanFailureThreshold = 5

// scanWindow is the rolling window over which failures accumulate.
const scanWindow = 10 * time.Minute

// blockDuration is how long a tripped prefix stays blocked.
const blockDuration = 1 * time.Hour

// RecordAuthFailure increments the failed-validation counter for a
// 12-character key prefix and blocks it once scanFailureThreshold is
// reached within scanWindow.
func (l *Limiter) RecordAuthFailure(ctx context.Context, prefix string) error {
	key := "antiscan:fail:" + prefix
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("ratelimit: record failure: %w", err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, scanWindow).Err(); err != nil {
			return fmt.Errorf("ratelimit: expire failure counter: %w", err)
		}
	}
	if count >= scanFailureThreshold {
		if err := l.redis.Set(ctx, "antiscan:blocked:"+prefix, "1", blockDuration).Err(); err != nil {
			return fmt.Errorf("ratelimit: set block: %w", err)
		}
	}
	return nil
}

// IsBlocked reports whether prefix is currently in the blocked-prefixes
// set.
func (l *Limiter) IsBlocked(ctx context.Context, prefix string) (bool, error) {
	n, err := l.redis.Exists(ctx, "antiscan:blocked:"+prefix).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: check block: %w", err)
	}
	return n > 0, nil
}

// MonthlyUsage tracks and checks month-to-date query volume per project.
type MonthlyUsage struct {
	redis *redis.Client
}

// NewMonthlyUsage creates a MonthlyUsage counter over the given client.
func NewMonthlyUsage(client *redis.Client) *MonthlyUsage {
	return &MonthlyUsage{redis: client}
}

func monthKey(projectID string, at time.Time) string {
	return fmt.Sprintf("usage:%s:%s", projectID, at.Format("2006-01"))
}

// Increment records one query against projectID's current month-to-date
// counter, expiring it after 32 days so old counters don't accumulate.
func (m *MonthlyUsage) Increment(ctx context.Context, projectID string) (current int64, err error) {
	key := monthKey(projectID, time.Now().UTC())
	count, err := m.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("ratelimit: increment usage: %w", err)
	}
	if count == 1 {
		if err := m.redis.Expire(ctx, key, 32*24*time.Hour).Err(); err != nil {
			return count, fmt.Errorf("ratelimit: expire usage counter: %w", err)
		}
	}
	return count, nil
}

// CurrentMonth returns the month-to-date query count for projectID
// without incrementing it.
func (m *MonthlyUsage) CurrentMonth(ctx context.Context, projectID string) (int64, error) {
	key := monthKey(projectID, time.Now().UTC())
	count, err := m.redis.Get(ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("ratelimit: read usage: %w", err)
	}
	return count, nil
}

// Exceeds reports whether current usage meets or exceeds ceiling. A
// ceiling of 0 means unlimited (ENTERPRISE plans, UNLIMITED bundles).
func Exceeds(current int64, ceiling int) bool {
	if ceiling <= 0 {
		return false
	}
	return current >= int64(ceiling)
}
