package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket is a per-key rate limiter. It is safe for concurrent use.
// Stale keys are automatically cleaned up.
type TokenBucket struct {
	mu       sync.Mutex
	limiters map[string]*keyLimiter
	rate     rate.Limit
	capacity int

	stop     chan struct{}
	stopOnce sync.Once
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTokenBucket creates a rate limiter that allows up to capacity events per key,
// refilling at the given rate (events per second). It starts a background goroutine
// that periodically removes stale keys until Stop is called.
func NewTokenBucket(perSecond float64, capacity int) *TokenBucket {
	tb := &TokenBucket{
		limiters: make(map[string]*keyLimiter),
		rate:     rate.Limit(perSecond),
		capacity: capacity,
		stop:     make(chan struct{}),
	}
	go tb.cleanup()
	return tb
}

// Allow reports whether the given key may proceed, consuming one token if so.
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	kl, ok := tb.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(tb.rate, tb.capacity)}
		tb.limiters[key] = kl
	}
	kl.lastSeen = time.Now()
	tb.mu.Unlock()

	return kl.limiter.Allow()
}

// Stop ends the cleanup goroutine. Allow keeps working afterwards. Safe to call
// more than once.
func (tb *TokenBucket) Stop() {
	tb.stopOnce.Do(func() { close(tb.stop) })
}

// cleanup runs periodically and removes keys that haven't been seen in 10 minutes.
func (tb *TokenBucket) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-tb.stop:
			return
		case <-ticker.C:
			tb.evictBefore(time.Now().Add(-10 * time.Minute))
		}
	}
}

func (tb *TokenBucket) evictBefore(cutoff time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	for key, kl := range tb.limiters {
		if kl.lastSeen.Before(cutoff) {
			delete(tb.limiters, key)
		}
	}
}
