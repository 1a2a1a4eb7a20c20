package ratelimit

import (
	"sync"
	"time"
)

// memoryWindow keeps request timestamps per key. When the key count passes
// maxKeys, keys whose newest entry left every window are dropped first and
// the whole map is reset if that is not enough.
type memoryWindow struct {
	mu      sync.Mutex
	hits    map[string][]time.Time
	maxKeys int
	maxSpan time.Duration
	now     func() time.Time
}

func newMemoryWindow(maxKeys int, now func() time.Time) *memoryWindow {
	return &memoryWindow{hits: make(map[string][]time.Time), maxKeys: maxKeys, now: now}
}

func (m *memoryWindow) allow(key string, b Budget) Decision {
	now := m.now()
	start := now.Add(-b.Window)

	m.mu.Lock()
	defer m.mu.Unlock()

	if b.Window > m.maxSpan {
		m.maxSpan = b.Window
	}

	entries := m.hits[key]
	i := 0
	for i < len(entries) && !entries[i].After(start) {
		i++
	}
	entries = entries[i:]

	count := len(entries)
	d := Decision{Allowed: count < b.Limit, Remaining: b.Limit - count - 1}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = b.Window
		if count > 0 {
			d.RetryAfter = entries[0].Add(b.Window).Sub(now)
		}
	}

	if _, exists := m.hits[key]; !exists && len(m.hits) >= m.maxKeys {
		m.evict(now)
	}
	m.hits[key] = append(entries, now)
	return d
}

func (m *memoryWindow) evict(now time.Time) {
	cutoff := now.Add(-m.maxSpan)
	for k, entries := range m.hits {
		if len(entries) == 0 || !entries[len(entries)-1].After(cutoff) {
			delete(m.hits, k)
		}
	}
	if len(m.hits) >= m.maxKeys {
		m.hits = make(map[string][]time.Time)
	}
}
