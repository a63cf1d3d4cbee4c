package ratelimit

import (
	"sync"
	"time"

	"favarchive/pkg/config"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request
	Wait()
	// Done marks the end of the request granted by the last Wait, whether it
	// succeeded or not
	Done()
	// Reset resets the rate limiter state
	Reset()
}

// FromConfig builds the limiter selected by cfg.Policy. Unknown policies fall
// back to the interval limiter.
func FromConfig(cfg *config.RateLimitConfig) Limiter {
	switch cfg.Policy {
	case config.PolicySlidingWindow:
		return NewSlidingWindow(cfg.RequestsPerWindow, cfg.Window)
	case config.PolicyTokenBucket:
		return NewTokenBucket(cfg.RequestsPerWindow, cfg.Window)
	default:
		return NewInterval(cfg.RequestInterval)
	}
}

// Interval keeps a fixed pause between requests. A grant at time t blocks
// the next one until t+interval, and a request finishing at time d blocks it
// until d+interval. The first request is never delayed.
type Interval struct {
	interval time.Duration
	next     time.Time
	mu       sync.Mutex
}

// NewInterval creates a min-interval limiter
func NewInterval(interval time.Duration) *Interval {
	return &Interval{interval: interval}
}

// Allow grants a request if the interval since the previous grant has passed
func (iv *Interval) Allow() bool {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	now := time.Now()
	if now.Before(iv.next) {
		return false
	}
	iv.next = now.Add(iv.interval)
	return true
}

// Wait blocks until the next grant. There is no way to abandon a wait once
// it has started.
func (iv *Interval) Wait() {
	for !iv.Allow() {
		iv.mu.Lock()
		remaining := time.Until(iv.next)
		iv.mu.Unlock()

		if remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// Done restarts the interval from now, so a slow request is still followed
// by a full pause
func (iv *Interval) Done() {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if next := time.Now().Add(iv.interval); next.After(iv.next) {
		iv.next = next
	}
}

// Reset forgets the previous grant
func (iv *Interval) Reset() {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	iv.next = time.Time{}
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity     int           // Maximum number of tokens
	tokens       int           // Current number of tokens
	refillPeriod time.Duration // Period after which bucket is refilled
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill > 0 {
			time.Sleep(timeUntilRefill)
		} else {
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Done is a no-op: tokens are spent when granted
func (tb *TokenBucket) Done() {}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// SlidingWindow implements a sliding window rate limiter
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// Allow checks if a request can proceed
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}

	return false
}

// Wait blocks until a request is allowed
func (sw *SlidingWindow) Wait() {
	for !sw.Allow() {
		sw.mu.Lock()
		timeToWait := 10 * time.Millisecond
		if len(sw.requests) > 0 {
			timeToWait = sw.windowSize - time.Since(sw.requests[0])
		}
		sw.mu.Unlock()

		if timeToWait > 0 {
			time.Sleep(timeToWait)
		}
	}
}

// Done is a no-op: the window counts request starts
func (sw *SlidingWindow) Done() {}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

// cleanOldRequests drops requests that fell out of the window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && sw.requests[i].Before(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}
