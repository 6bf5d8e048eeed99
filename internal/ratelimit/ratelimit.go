// Package ratelimit throttles public submissions per client.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	// RetryAfter is how long until the next request would be allowed. Zero
	// when Allowed.
	RetryAfter time.Duration
}

// Limiter admits at most a fixed number of requests per key in a sliding
// window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// MemoryLimiter keeps request timestamps in process memory. Call Stop on
// shutdown to end the cleanup goroutine.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
	stop chan struct{}
	once sync.Once
}

// NewMemoryLimiter allows limit requests per window for each key.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
		stop:   make(chan struct{}),
	}
	go l.cleanup(window * 5)
	return l
}

// Stop terminates the background cleanup goroutine.
func (l *MemoryLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	valid := l.recent(key, now)

	if len(valid) >= l.limit {
		l.hits[key] = valid
		wait := valid[0].Add(l.window).Sub(now)
		if wait < time.Second {
			wait = time.Second
		}
		return Decision{RetryAfter: wait}, nil
	}

	l.hits[key] = append(valid, now)
	return Decision{Allowed: true}, nil
}

// recent drops timestamps that left the window. Callers hold mu.
func (l *MemoryLimiter) recent(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	requests := l.hits[key]
	valid := requests[:0]
	for _, at := range requests {
		if at.After(cutoff) {
			valid = append(valid, at)
		}
	}
	return valid
}

func (l *MemoryLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key := range l.hits {
				if valid := l.recent(key, now); len(valid) == 0 {
					delete(l.hits, key)
				} else {
					l.hits[key] = valid
				}
			}
			l.mu.Unlock()
		}
	}
}
