package postal

import (
	"sync"
	"time"
)

// BreakerState is the position of a Breaker.
type BreakerState int

const (
	// BreakerClosed lets every lookup through and counts failures.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects lookups until the cool-down has passed.
	BreakerOpen
	// BreakerHalfOpen lets probe lookups through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker stops calling the lookup service after consecutive failures.
// It is safe for concurrent use.
type Breaker struct {
	mu               sync.Mutex
	state            BreakerState
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
	coolDown         time.Duration
	openedAt         time.Time
	now              func() time.Time
}

// NewBreaker opens after failureThreshold consecutive failures, stays open
// for coolDown, then closes after successThreshold successful probes.
// Non-positive arguments fall back to 5, 1 and 30s.
func NewBreaker(failureThreshold, successThreshold int, coolDown time.Duration) *Breaker {
	if failureThreshold < 1 {
		failureThreshold = 5
	}
	if successThreshold < 1 {
		successThreshold = 1
	}
	if coolDown <= 0 {
		coolDown = 30 * time.Second
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		coolDown:         coolDown,
		now:              time.Now,
	}
}

// Allow reports whether a lookup may be attempted now.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.advance() != BreakerOpen
}

// Success records a lookup that reached the service.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.advance() {
	case BreakerClosed:
		b.failures = 0
	case BreakerHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = BreakerClosed
			b.failures = 0
			b.successes = 0
		}
	}
}

// Failure records a lookup that could not reach the service.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.advance() {
	case BreakerClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	case BreakerHalfOpen:
		b.trip()
	}
}

// State returns the current position.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.advance()
}

// advance moves an expired open breaker to half-open. Must hold mu.
func (b *Breaker) advance() BreakerState {
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.coolDown {
		b.state = BreakerHalfOpen
		b.successes = 0
	}
	return b.state
}

// trip opens the breaker. Must hold mu.
func (b *Breaker) trip() {
	b.state = BreakerOpen
	b.openedAt = b.now()
	b.successes = 0
}
