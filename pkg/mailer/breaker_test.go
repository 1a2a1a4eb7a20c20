package mailer

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyMailer struct {
	err   error
	calls int
}

func (f *flakyMailer) Send(context.Context, string, string, string) error {
	f.calls++
	return f.err
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	ctx := context.Background()
	inner := &flakyMailer{err: errors.New("relay down")}
	b := NewBreaker(inner, 2, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if err := b.Send(ctx, "a@b.c", "s", "b"); err == nil {
			t.Fatalf("send #%d: expected relay error", i)
		}
	}
	if got := b.State(); got != "open" {
		t.Fatalf("state = %q, want open", got)
	}
	if err := b.Send(ctx, "a@b.c", "s", "b"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}

	now = now.Add(2 * time.Minute)
	inner.err = nil
	if err := b.Send(ctx, "a@b.c", "s", "b"); err != nil {
		t.Fatalf("half-open probe: %v", err)
	}
	if got := b.State(); got != "closed" {
		t.Errorf("state = %q, want closed", got)
	}
}
