// Package ratelimit implements a sliding-window request counter keyed by
// caller and endpoint. Redis provides a limit shared by all workers; the
// in-memory fallback is per process.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tair/tenant-commerce/pkg/logger"
)

// Budget is a named request allowance per window.
type Budget struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Preset budgets; limits are overridable from configuration.
var (
	ProductList = Budget{Name: "PRODUCT_LIST", Limit: 60, Window: time.Minute}
	Checkout    = Budget{Name: "CHECKOUT", Limit: 20, Window: time.Minute}
)

// Decision is the outcome of one check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, at least 1.
func (d Decision) RetryAfterSeconds() int {
	s := int(math.Ceil(d.RetryAfter.Seconds()))
	if s < 1 {
		s = 1
	}
	return s
}

var rateLimited = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ecommerce_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	},
	[]string{"budget"},
)

func init() {
	prometheus.MustRegister(rateLimited)
}

// Limiter checks budgets against Redis, falling back to memory on failure.
type Limiter struct {
	redis     *redis.Client
	opTimeout time.Duration
	memory    *memoryWindow
}

// NewLimiter builds a limiter; a nil client uses the memory window only.
func NewLimiter(client *redis.Client, opTimeout time.Duration) *Limiter {
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}
	return &Limiter{redis: client, opTimeout: opTimeout, memory: newMemoryWindow(100_000, time.Now)}
}

// Allow records one request for identifier against budget.
func (l *Limiter) Allow(ctx context.Context, identifier string, b Budget) Decision {
	key := fmt.Sprintf("ratelimit:%s:%s", b.Name, identifier)

	var d Decision
	if l.redis != nil {
		var err error
		d, err = l.checkRedis(ctx, key, b)
		if err != nil {
			logger.Warn(ctx).Err(err).Str("key", key).Msg("Redis rate limiter failed, using memory window")
			d = l.memory.allow(key, b)
		}
	} else {
		d = l.memory.allow(key, b)
	}

	if !d.Allowed {
		rateLimited.WithLabelValues(b.Name).Inc()
	}
	return d
}

// checkRedis trims the window, counts what remains and records this request
// in one pipeline; the request is recorded whether or not it is allowed.
func (l *Limiter) checkRedis(ctx context.Context, key string, b Budget) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	now := time.Now()
	windowStart := now.Add(-b.Window)

	pipe := l.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, b.Window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(countCmd.Val())
	d := Decision{Allowed: count < b.Limit, Remaining: b.Limit - count - 1}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = b.Window
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			d.RetryAfter = time.Unix(0, int64(oldest[0].Score)).Add(b.Window).Sub(now)
		}
	}
	return d, nil
}
