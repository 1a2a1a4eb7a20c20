package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tair/tenant-commerce/pkg/logger"
)

// ErrCircuitOpen is returned while the breaker rejects sends.
var ErrCircuitOpen = errors.New("mailer circuit breaker is open")

type breakerState string

const (
	stateClosed   breakerState = "closed"
	stateOpen     breakerState = "open"
	stateHalfOpen breakerState = "half-open"
)

// Breaker wraps a Mailer and stops calling it after repeated failures, so a
// dead SMTP relay does not add its timeout to every checkout.
type Breaker struct {
	next        Mailer
	maxFailures int
	cooldown    time.Duration
	// probes is the number of half-open successes needed to close again.
	probes int

	mu        sync.Mutex
	state     breakerState
	failures  int
	successes int
	changedAt time.Time
	now       func() time.Time
}

// NewBreaker opens after maxFailures consecutive failures and retries after cooldown.
func NewBreaker(next Mailer, maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		next:        next,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		probes:      1,
		state:       stateClosed,
		changedAt:   time.Now(),
		now:         time.Now,
	}
}

func (b *Breaker) Send(ctx context.Context, to, subject, htmlBody string) error {
	if !b.admit(ctx) {
		return ErrCircuitOpen
	}
	err := b.next.Send(ctx, to, subject, htmlBody)
	b.record(ctx, err)
	return err
}

func (b *Breaker) admit(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == stateOpen && b.now().Sub(b.changedAt) > b.cooldown {
		b.transition(ctx, stateHalfOpen)
	}
	return b.state != stateOpen
}

func (b *Breaker) record(ctx context.Context, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		if b.state == stateHalfOpen || b.failures >= b.maxFailures {
			b.transition(ctx, stateOpen)
		}
		return
	}
	switch b.state {
	case stateHalfOpen:
		b.successes++
		if b.successes >= b.probes {
			b.transition(ctx, stateClosed)
		}
	case stateClosed:
		b.failures = 0
	}
}

// transition must be called with mu held.
func (b *Breaker) transition(ctx context.Context, to breakerState) {
	b.state = to
	b.changedAt = b.now()
	b.successes = 0
	if to == stateClosed {
		b.failures = 0
	}
	logger.Warn(ctx).Str("circuit", "mailer").Str("state", string(to)).Int("failures", b.failures).
		Msg("Mailer circuit breaker state changed")
}

// State reports the current breaker state.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.state)
}
