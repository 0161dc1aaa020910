// Package ratelimit provides a token bucket for per-connection message limits.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket refilled at rate tokens per second up to burst.
// A non-positive rate disables limiting.
type Limiter struct {
	rate       float64
	burst      int
	tokens     float64
	lastUpdate time.Time
	now        func() time.Time
	mu         sync.Mutex
}

func NewLimiter(rate float64, burst int) *Limiter {
	return newLimiter(rate, burst, time.Now)
}

func newLimiter(rate float64, burst int, now func() time.Time) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		rate:       rate,
		burst:      burst,
		tokens:     float64(burst),
		lastUpdate: now(),
		now:        now,
	}
}

// Allow takes one token if available
func (l *Limiter) Allow() bool {
	return l.AllowN(1)
}

// AllowN takes n tokens if all are available
func (l *Limiter) AllowN(n int) bool {
	if l.rate <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	elapsed := now.Sub(l.lastUpdate).Seconds()
	l.lastUpdate = now

	l.tokens += elapsed * l.rate
	if l.tokens > float64(l.burst) {
		l.tokens = float64(l.burst)
	}

	if l.tokens >= float64(n) {
		l.tokens -= float64(n)
		return true
	}

	return false
}

// Guard counts consecutive messages rejected by a Limiter. An allowed message
// resets the count. Not safe for concurrent use; each read loop owns one.
type Guard struct {
	limiter *Limiter
	max     int
	strikes int
}

// NewGuard reports a sender as exceeded after max consecutive rejections
func NewGuard(l *Limiter, max int) *Guard {
	if max < 1 {
		max = 1
	}
	return &Guard{limiter: l, max: max}
}

// Check takes a token for one message. exceeded is true once max consecutive
// messages have been rejected.
func (g *Guard) Check() (allowed, exceeded bool) {
	if g.limiter.Allow() {
		g.strikes = 0
		return true, false
	}
	g.strikes++
	return false, g.strikes >= g.max
}
