// Package ratelimit provides per-client rate limiting using the token bucket algorithm.
package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenBucket represents a token bucket rate limiter.
// It allows a certain number of requests (tokens) per time window,
// with tokens refilling at a steady rate.
type TokenBucket struct {
	capacity   int        // Maximum tokens (burst capacity)
	refillRate float64    // Tokens per second
	tokens     float64    // Current tokens available
	lastRefill time.Time  // Last time tokens were refilled
	mu         sync.Mutex // Mutex for thread safety
}

// newTokenBucket creates a new token bucket with the specified capacity and refill rate.
func newTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity), // Start with full bucket
		lastRefill: time.Now(),
	}
}

// refill adds the tokens earned since the last refill. Callers hold tb.mu.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill)
	tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed.Seconds()*tb.refillRate)
	tb.lastRefill = now
}

// take consumes a token if one is available and reports the bucket status afterwards.
func (tb *TokenBucket) take() (allowed bool, remaining int, resetTime time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.refill(now)

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		allowed = true
	}
	remaining, resetTime = tb.statusLocked(now)
	return allowed, remaining, resetTime
}

// statusLocked reports whole tokens left and when the bucket will be full again.
func (tb *TokenBucket) statusLocked(now time.Time) (int, time.Time) {
	if tb.tokens >= float64(tb.capacity) {
		return tb.capacity, now
	}
	secondsUntilFull := (float64(tb.capacity) - tb.tokens) / tb.refillRate
	return int(tb.tokens), now.Add(time.Duration(secondsUntilFull * float64(time.Second)))
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	IdleTTL         time.Duration // Buckets unused for this long are dropped
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// Limiter manages rate limiting for multiple clients using token buckets.
// Buckets live in an expiring cache keyed by client, route pattern and method;
// every request refreshes its bucket's expiry.
type Limiter struct {
	buckets *cache.Cache
	config  *Config
	mu      sync.Mutex // serializes bucket creation
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			IdleTTL:         time.Hour,
			CleanupInterval: 5 * time.Minute,
			Whitelist:       make(map[string]bool),
			Blacklist:       make(map[string]bool),
		}
	}
	ttl := config.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	cleanup := config.CleanupInterval
	if cleanup <= 0 {
		cleanup = 5 * time.Minute
	}

	return &Limiter{
		buckets: cache.New(ttl, cleanup),
		config:  config,
	}
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
// Returns true if allowed, false if rate limited, along with rate limit information.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	// Find matching endpoint configuration
	endpointConfig := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	key := clientID + ":" + endpoint + ":" + method
	if endpointConfig == nil {
		endpointConfig = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit, // Use limit as burst for default
		}
	} else if endpointConfig.Path != "" {
		// One bucket per route pattern, not per vault id.
		key = clientID + ":" + endpointConfig.Path + ":" + method
	}

	// Unlimited endpoint (e.g., health check)
	if endpointConfig.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	bucket := l.getBucket(key, endpointConfig)
	allowed, remaining, resetTime := bucket.take()

	var retryAfter time.Duration
	if !allowed {
		// Time until the next whole token, not until the bucket is full.
		retryAfter = time.Duration(float64(time.Second) / bucket.refillRate)
	}

	return allowed, Info{
		Allowed:    allowed,
		Limit:      endpointConfig.Limit,
		Remaining:  remaining,
		ResetTime:  resetTime,
		RetryAfter: retryAfter,
	}
}

// getBucket gets or creates the token bucket for key and refreshes its expiry.
func (l *Limiter) getBucket(key string, ec *EndpointConfig) *TokenBucket {
	if v, ok := l.buckets.Get(key); ok {
		bucket := v.(*TokenBucket)
		l.buckets.SetDefault(key, bucket)
		return bucket
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring the lock
	if v, ok := l.buckets.Get(key); ok {
		return v.(*TokenBucket)
	}

	// Refill rate = limit / window duration in seconds
	window := ec.Window
	if window <= 0 {
		window = time.Minute
	}
	capacity := ec.Burst
	if capacity <= 0 {
		capacity = ec.Limit
	}
	bucket := newTokenBucket(capacity, float64(ec.Limit)/window.Seconds())
	l.buckets.SetDefault(key, bucket)
	return bucket
}

// Buckets returns the number of live buckets.
func (l *Limiter) Buckets() int {
	return l.buckets.ItemCount()
}
