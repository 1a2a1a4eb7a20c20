package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
)

func TestCacheInvalidationHandlerSkipsOwnOrigin(t *testing.T) {
	var got []string
	h := CacheInvalidationHandler("worker-a", func(_ context.Context, prefix string) {
		got = append(got, prefix)
	})

	own, _ := json.Marshal(CacheInvalidatedEvent{Origin: "worker-a", Prefixes: []string{"products"}})
	peer, _ := json.Marshal(CacheInvalidatedEvent{Origin: "worker-b", Prefixes: []string{"products", "ribbons"}})

	if err := h(context.Background(), own); err != nil {
		t.Fatalf("own event: %v", err)
	}
	if err := h(context.Background(), peer); err != nil {
		t.Fatalf("peer event: %v", err)
	}
	if len(got) != 2 || got[0] != "products" || got[1] != "ribbons" {
		t.Errorf("invalidated = %v, want [products ribbons]", got)
	}
}

func TestCacheInvalidationHandlerRejectsGarbage(t *testing.T) {
	h := CacheInvalidationHandler("x", func(context.Context, string) {})
	if err := h(context.Background(), []byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
}

type failingGroup struct {
	sarama.ConsumerGroup
	calls atomic.Int32
	errs  chan error
}

func (g *failingGroup) Consume(context.Context, []string, sarama.ConsumerGroupHandler) error {
	g.calls.Add(1)
	return errors.New("broker unavailable")
}

func (g *failingGroup) Errors() <-chan error { return g.errs }

func TestRunBacksOffOnConsumeErrors(t *testing.T) {
	group := &failingGroup{errs: make(chan error)}
	c := &Consumer{
		group:    group,
		topics:   []string{TopicCacheInvalidated},
		handlers: make(map[string]EventHandler),
		retryMin: 40 * time.Millisecond,
		retryMax: 40 * time.Millisecond,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	if n := group.calls.Load(); n < 1 || n > 20 {
		t.Errorf("Consume calls = %d, want a handful spaced by the backoff", n)
	}
}
