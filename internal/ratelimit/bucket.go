// Package ratelimit implements the token bucket each HTTP client uses to
// throttle outbound probe traffic. The algorithm is a direct port of the
// scanner core's Python throttle (rate * time elapsed refill, blocking
// take with the lock released across the sleep), not the stdlib-style
// golang.org/x/time/rate limiter — that limiter's Wait() holds no
// guarantee about capacity shape, and the spec's capacity formula
// (max(1, ceil(2r))) and "release the lock while sleeping" requirement
// are specific enough that hand-porting the original is more faithful
// than adapting a library built for a different use case.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Bucket is a token bucket with rate r tokens/sec and capacity
// max(1, ceil(2r)). It is safe for concurrent use.
type Bucket struct {
	mu       sync.Mutex
	rate     float64
	capacity float64
	tokens   float64
	last     time.Time
}

// New creates a Bucket for the given rate in tokens per second.
func New(rate float64) *Bucket {
	capacity := math.Max(1, math.Ceil(2*rate))
	return &Bucket{
		rate:     rate,
		capacity: capacity,
		tokens:   capacity,
		last:     time.Now(),
	}
}

// Capacity returns the bucket's maximum token count.
func (b *Bucket) Capacity() float64 {
	return b.capacity
}

func (b *Bucket) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.rate)
		b.last = now
	}
}

// Take blocks until n tokens are available, then deducts them. The
// internal mutex is never held while sleeping: a caller computes how long
// it must wait, releases the lock, sleeps, then re-acquires and
// re-evaluates (another refill may have happened concurrently, and in
// practice won't have removed tokens since only Take adds contention).
func (b *Bucket) Take(n float64) {
	for {
		b.mu.Lock()
		b.refillLocked()
		if b.tokens >= n {
			b.tokens -= n
			b.mu.Unlock()
			return
		}
		need := n - b.tokens
		wait := time.Duration(need / b.rate * float64(time.Second))
		b.mu.Unlock()
		if wait > 0 {
			time.Sleep(wait)
		}
	}
}
