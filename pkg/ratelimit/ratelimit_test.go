package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryWindowSixtyFirstRequestRejected(t *testing.T) {
	l := NewLimiter(nil, time.Second)
	ctx := context.Background()

	for i := 1; i <= 60; i++ {
		if d := l.Allow(ctx, "10.0.0.1", ProductList); !d.Allowed {
			t.Fatalf("request %d rejected, want allowed", i)
		}
	}
	d := l.Allow(ctx, "10.0.0.1", ProductList)
	if d.Allowed {
		t.Fatal("61st request allowed, want rejected")
	}
	if d.RetryAfterSeconds() < 1 || d.RetryAfterSeconds() > 60 {
		t.Errorf("RetryAfterSeconds = %d, want within (0, 60]", d.RetryAfterSeconds())
	}

	if d := l.Allow(ctx, "10.0.0.2", ProductList); !d.Allowed {
		t.Error("a different IP must have its own window")
	}
	if d := l.Allow(ctx, "10.0.0.1", Checkout); !d.Allowed {
		t.Error("a different budget must have its own window")
	}
}

func TestMemoryWindowSlides(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w := newMemoryWindow(10, func() time.Time { return now })
	b := Budget{Name: "T", Limit: 2, Window: time.Minute}

	w.allow("k", b)
	now = now.Add(30 * time.Second)
	w.allow("k", b)
	if d := w.allow("k", b); d.Allowed {
		t.Fatal("third request inside the window allowed")
	} else if d.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", d.RetryAfter)
	}

	now = now.Add(61 * time.Second)
	if d := w.allow("k", b); !d.Allowed {
		t.Error("request after the window slid should be allowed")
	}
}

func TestMemoryWindowBoundsKeys(t *testing.T) {
	now := time.Now()
	w := newMemoryWindow(3, func() time.Time { return now })
	b := Budget{Name: "T", Limit: 5, Window: time.Minute}
	for _, k := range []string{"a", "b", "c", "d"} {
		w.allow(k, b)
	}
	if len(w.hits) > 3 {
		t.Errorf("tracked keys = %d, want at most 3", len(w.hits))
	}
}
