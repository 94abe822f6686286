package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a fixed-window in-process rate limiter keyed by caller
// identity. Counters reset when a window elapses; there is no sharing
// across processes.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func New(limit int, windowSize time.Duration) *Limiter {
	if limit <= 0 {
		limit = 1
	}
	if windowSize <= 0 {
		windowSize = time.Minute
	}
	return &Limiter{
		limit:   limit,
		window:  windowSize,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow reports whether the caller identified by key may proceed, and
// counts the attempt either way.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.windows[key] = &window{start: now, count: 1}
		l.pruneLocked(now)
		return true
	}

	w.count++
	return w.count <= l.limit
}

// RetryAfter returns how long until the caller's window resets.
func (l *Limiter) RetryAfter(key string) time.Duration {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		return 0
	}
	remaining := l.window - now.Sub(w.start)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// pruneLocked drops expired windows so the map does not grow without
// bound under churning client IPs.
func (l *Limiter) pruneLocked(now time.Time) {
	if len(l.windows) < 4096 {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
		}
	}
}
