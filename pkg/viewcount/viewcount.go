// Package viewcount decides whether a product view from an IP is counted.
// One view per (IP, product) per window is recorded.
package viewcount

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/tenant-commerce/pkg/logger"
)

const (
	DefaultWindow = 60 * time.Second
	// maxMemoryEntries bounds the fallback map; it is cleared when exceeded.
	maxMemoryEntries = 10_000
)

// Limiter gates view counting.
type Limiter struct {
	redis     *redis.Client
	window    time.Duration
	opTimeout time.Duration

	mu     sync.Mutex
	seen   map[string]time.Time
	maxLen int
	now    func() time.Time
}

// New returns a limiter; a nil client keeps all state in memory.
func New(client *redis.Client, opTimeout time.Duration) *Limiter {
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}
	return &Limiter{
		redis:     client,
		window:    DefaultWindow,
		opTimeout: opTimeout,
		seen:      make(map[string]time.Time),
		maxLen:    maxMemoryEntries,
		now:       time.Now,
	}
}

// Key is the store key for one (ip, product) pair.
func Key(ip string, productID uint) string {
	return fmt.Sprintf("view_count:%s:%d", ip, productID)
}

// Allow reports whether this view should increment the product counter.
func (l *Limiter) Allow(ctx context.Context, ip string, productID uint) bool {
	key := Key(ip, productID)

	if l.redis != nil {
		rctx, cancel := context.WithTimeout(ctx, l.opTimeout)
		ok, err := l.redis.SetNX(rctx, key, 1, l.window).Result()
		cancel()
		if err == nil {
			return ok
		}
		logger.Warn(ctx).Err(err).Str("key", key).Msg("Redis view limiter failed, using memory map")
	}
	return l.allowMemory(key)
}

func (l *Limiter) allowMemory(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.seen[key]; ok && now.Sub(last) < l.window {
		return false
	}
	if len(l.seen) >= l.maxLen {
		l.seen = make(map[string]time.Time)
	}
	l.seen[key] = now
	return true
}
