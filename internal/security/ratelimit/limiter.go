package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key (an identity id or a client IP).
// Buckets idle for longer than staleAfter are dropped.
type Limiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	limit      rate.Limit
	burst      int
	staleAfter time.Duration
	now        func() time.Time
	cleanup    *time.Ticker
	done       chan struct{}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter allows perMinute requests per key, with bursts of the same size.
func NewLimiter(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	l := &Limiter{
		buckets:    make(map[string]*bucket),
		limit:      rate.Every(time.Minute / time.Duration(perMinute)),
		burst:      perMinute,
		staleAfter: 15 * time.Minute,
		now:        time.Now,
		cleanup:    time.NewTicker(5 * time.Minute),
		done:       make(chan struct{}),
	}
	go l.cleanupOldBuckets()
	return l
}

// Allow reports whether key may make a request now. The empty key is
// never limited.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	l.mu.Lock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()
	return b.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	threshold := l.now().Add(-l.staleAfter)
	for key, b := range l.buckets {
		if b.lastSeen.Before(threshold) {
			delete(l.buckets, key)
		}
	}
}

func (l *Limiter) cleanupOldBuckets() {
	for {
		select {
		case <-l.cleanup.C:
			l.sweep()
		case <-l.done:
			return
		}
	}
}

func (l *Limiter) Stop() {
	l.cleanup.Stop()
	close(l.done)
}
