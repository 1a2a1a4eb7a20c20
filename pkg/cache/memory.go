package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// MemoryStore is the process-local tier. Ristretto cannot enumerate its
// keys, so a side index supports prefix invalidation.
type MemoryStore struct {
	cache *ristretto.Cache[string, []byte]

	mu   sync.Mutex
	keys map[string]time.Time
}

// NewMemoryStore creates a store bounded to maxCost bytes.
func NewMemoryStore(maxCost int64) (*MemoryStore, error) {
	if maxCost <= 0 {
		maxCost = 64 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 100_000,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto new cache: %w", err)
	}
	return &MemoryStore{cache: c, keys: make(map[string]time.Time)}, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, ok := m.cache.Get(key)
	return val, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if !m.cache.SetWithTTL(key, value, int64(len(value)), ttl) {
		return fmt.Errorf("ristretto rejected key %q", key)
	}
	m.cache.Wait()

	m.mu.Lock()
	m.keys[key] = time.Now().Add(ttl)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, exp := range m.keys {
		switch {
		case strings.HasPrefix(k, prefix):
			m.cache.Del(k)
			delete(m.keys, k)
		case now.After(exp):
			delete(m.keys, k)
		}
	}
	return nil
}

func (m *MemoryStore) Close() {
	m.cache.Close()
}
