// Package ratelimit paces requests to the favorites API.
//
// All limiters implement Limiter (Allow, Wait, Done, Reset). The archiver shares a
// single Limiter between page requests and media downloads, so swapping the
// policy never touches fetch logic.
//
// Implementations:
//   - Interval: a fixed pause after each request ends (default 1500ms)
//   - SlidingWindow: at most N requests in any moving window
//   - TokenBucket: N requests per period, refilled all at once
//
// FromConfig picks one from config.RateLimitConfig.Policy:
//
//	limiter := ratelimit.FromConfig(&cfg.RateLimit)
//	limiter.Wait()
//	// issue the request
//	limiter.Done()
package ratelimit
