// Package cache is the keyed snapshot store used by read-heavy endpoints.
// Redis is the shared tier; a process-local ristretto tier takes over when
// Redis is unreachable. The cache is never a source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/tenant-commerce/pkg/logger"
)

// Store is a byte-oriented key/value store with TTLs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Service fronts the shared store with the local fallback.
type Service struct {
	remote Store
	local  *MemoryStore
}

// New builds a Service. A nil client runs on the local tier only.
func New(client *redis.Client, opTimeout time.Duration, memoryMaxCost int64) (*Service, error) {
	local, err := NewMemoryStore(memoryMaxCost)
	if err != nil {
		return nil, err
	}
	s := &Service{local: local}
	if client != nil {
		s.remote = NewRedisStore(client, opTimeout)
	}
	return s, nil
}

// Get returns the cached bytes for key.
func (s *Service) Get(ctx context.Context, key string) ([]byte, bool) {
	if s.remote != nil {
		val, ok, err := s.remote.Get(ctx, key)
		if err == nil {
			observe("get", hitLabel(ok), "redis")
			return val, ok
		}
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Redis get failed, using memory cache")
	}
	val, ok, _ := s.local.Get(ctx, key)
	observe("get", hitLabel(ok), "memory")
	return val, ok
}

// Set stores value under key. Failures are logged and swallowed.
func (s *Service) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if s.remote != nil {
		err := s.remote.Set(ctx, key, value, ttl)
		if err == nil {
			observe("set", "ok", "redis")
			return
		}
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Redis set failed, using memory cache")
	}
	if err := s.local.Set(ctx, key, value, ttl); err != nil {
		observe("set", "error", "memory")
		return
	}
	observe("set", "ok", "memory")
}

// GetJSON decodes the cached value into dst. A decode failure counts as a miss.
func (s *Service) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Dropping undecodable cache entry")
		return false
	}
	return true
}

// SetJSON encodes value and stores it.
func (s *Service) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Cache value not encodable")
		return
	}
	s.Set(ctx, key, raw, ttl)
}

// Invalidate removes every key starting with prefix from both tiers.
// A trailing "*" is accepted and ignored.
func (s *Service) Invalidate(ctx context.Context, prefix string) error {
	prefix = strings.TrimSuffix(prefix, "*")
	if prefix == "" {
		return errors.New("cache: empty invalidation prefix")
	}

	var remoteErr error
	if s.remote != nil {
		if remoteErr = s.remote.DeletePrefix(ctx, prefix); remoteErr != nil {
			logger.Warn(ctx).Err(remoteErr).Str("prefix", prefix).Msg("Redis invalidation failed")
		}
	}
	_ = s.local.DeletePrefix(ctx, prefix)
	observe("invalidate", "ok", "memory")
	return remoteErr
}

// InvalidateLocal clears only the process-local tier. Peers call it when
// another worker announces an invalidation.
func (s *Service) InvalidateLocal(ctx context.Context, prefix string) {
	_ = s.local.DeletePrefix(ctx, strings.TrimSuffix(prefix, "*"))
}

// Close releases the local tier.
func (s *Service) Close() {
	s.local.Close()
}

func hitLabel(ok bool) string {
	if ok {
		return "hit"
	}
	return "miss"
}
