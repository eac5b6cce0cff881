package proxy

import (
	"context"
	"errors"
	"sync"
	"time"
)

// BreakerState is the state of the circuit in front of the proxy.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// ErrCircuitOpen is returned without calling the proxy while the circuit is open.
var ErrCircuitOpen = errors.New("myDATA proxy circuit is open")

// Breaker stops calling the proxy after repeated transport failures and
// probes it again after a cooldown. Rejections by myDATA are answers, not
// failures, and never open the circuit.
type Breaker struct {
	maxFailures      int
	cooldown         time.Duration
	successThreshold int
	now              func() time.Time

	mu              sync.Mutex
	state           BreakerState
	failures        int
	successes       int
	lastStateChange time.Time
}

// NewBreaker opens after maxFailures consecutive failures and stays open for cooldown.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		maxFailures:      maxFailures,
		cooldown:         cooldown,
		successThreshold: 1,
		now:              time.Now,
	}
}

// Execute runs fn unless the circuit is open.
func (b *Breaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.state == BreakerOpen {
		if b.now().Sub(b.lastStateChange) < b.cooldown {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.setState(BreakerHalfOpen)
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.successes = 0
		if b.state == BreakerHalfOpen || b.failures >= b.maxFailures {
			b.setState(BreakerOpen)
		}
		return err
	}

	b.failures = 0
	if b.state == BreakerHalfOpen {
		b.successes++
		if b.successes >= b.successThreshold {
			b.setState(BreakerClosed)
		}
	}
	return nil
}

// caller holds b.mu
func (b *Breaker) setState(s BreakerState) {
	b.state = s
	b.successes = 0
	b.lastStateChange = b.now()
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the circuit.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.setState(BreakerClosed)
}
