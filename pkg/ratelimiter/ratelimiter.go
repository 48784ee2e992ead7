// Package ratelimiter provides client-side rate limiting for outbound calls
// to embedding and generation providers.
package ratelimiter

import (
	"context"
	"time"
)

// RateLimiter reports whether a request may proceed right now.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}

// Wait blocks until the limiter admits a request or the context is done. It
// polls rather than reserving because the token bucket has no notion of
// future tokens.
func Wait(ctx context.Context, limiter RateLimiter) error {
	if limiter.Allow() {
		return nil
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if limiter.Allow() {
				return nil
			}
		}
	}
}
