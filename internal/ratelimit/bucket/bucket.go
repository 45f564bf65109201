// Package bucket implements the per-key login token bucket. State is
// process-local and ephemeral: a restart resets all buckets. Durable
// blocking is the ipban package's job.
package bucket

import (
	"context"
	"sync"
	"time"

	"github.com/Aleksandr505/Confa/internal/ratelimit/metrics"
)

// Limiter admits login attempts per identity key using a greedy token
// bucket: the full capacity is restored continuously over the refill
// window, computed lazily at consume time.
type Limiter struct {
	capacity float64
	window   time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics

	mu      sync.RWMutex
	buckets map[string]*tokenBucket
}

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

type Option func(*Limiter)

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithMetrics attaches limiter metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

func New(capacity int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		capacity: float64(capacity),
		window:   window,
		now:      time.Now,
		buckets:  make(map[string]*tokenBucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TryConsume takes one token from the key's bucket. It returns false with
// no side effects when the bucket is empty. Consumption for a single key
// is serialized by the bucket's own mutex, so the last token cannot be
// double-spent under concurrent access.
func (l *Limiter) TryConsume(key string) bool {
	b := l.getOrCreateBucket(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.now()
	b.refill(now, l.capacity, l.window)
	b.lastSeen = now

	if b.tokens < 1 {
		l.metrics.IncrementAttemptsDenied()
		return false
	}
	b.tokens--
	return true
}

// refill restores elapsed*capacity/window tokens, capped at capacity.
// Must be called while holding b.mu.
func (b *tokenBucket) refill(now time.Time, capacity float64, window time.Duration) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}
	b.tokens = min(capacity, b.tokens+capacity*float64(elapsed)/float64(window))
	b.lastRefill = now
}

func (l *Limiter) getOrCreateBucket(key string) *tokenBucket {
	l.mu.RLock()
	b := l.buckets[key]
	l.mu.RUnlock()
	if b != nil {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b = l.buckets[key]; b != nil {
		return b
	}
	now := l.now()
	b = &tokenBucket{tokens: l.capacity, lastRefill: now, lastSeen: now}
	l.buckets[key] = b
	return b
}

// Sweep evicts buckets idle for longer than maxIdle. A fully refilled idle
// bucket is indistinguishable from a fresh one, so eviction never grants
// extra attempts: maxIdle must be >= the refill window, and Sweep clamps
// it up when it is not. Returns the number of buckets evicted.
func (l *Limiter) Sweep(maxIdle time.Duration) int {
	if maxIdle < l.window {
		maxIdle = l.window
	}
	cutoff := l.now().Add(-maxIdle)

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for key, b := range l.buckets {
		b.mu.Lock()
		idle := b.lastSeen.Before(cutoff)
		b.mu.Unlock()
		if idle {
			delete(l.buckets, key)
			evicted++
		}
	}
	return evicted
}

// Len reports the current number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

// Run sweeps idle buckets periodically until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.metrics.AddSweptBuckets(l.Sweep(maxIdle))
			l.metrics.SetActiveBuckets(l.Len())
		}
	}
}
