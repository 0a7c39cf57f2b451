package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter caps the request rate per client within a fixed one
// minute window.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	clients           map[string]*clientUsage
}

// clientUsage tracks requests for a single client/IP.
type clientUsage struct {
	requests    int
	windowStart time.Time
}

// NewRateLimiter creates a rate limiter allowing requestsPerMinute
// requests per client.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		clients:           make(map[string]*clientUsage),
	}
}

// CheckRateLimit checks whether a request from the given client is
// allowed and counts it when it is.
func (rl *RateLimiter) CheckRateLimit(clientID string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	usage, exists := rl.clients[clientID]
	if !exists {
		usage = &clientUsage{windowStart: now}
		rl.clients[clientID] = usage
	}

	if now.Sub(usage.windowStart) >= time.Minute {
		usage.requests = 0
		usage.windowStart = now
	}

	if usage.requests >= rl.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      rl.requestsPerMinute,
			RetryAfter: time.Minute - now.Sub(usage.windowStart),
		}
	}

	usage.requests++
	return nil
}

// Requests returns the request count inside the current window for a
// client. Exposed for tests and usage introspection.
func (rl *RateLimiter) Requests(clientID string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	usage, exists := rl.clients[clientID]
	if !exists || time.Since(usage.windowStart) >= time.Minute {
		return 0
	}
	return usage.requests
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string        // limited window, currently always "minute"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}
