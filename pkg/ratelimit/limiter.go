package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a per-key sliding-window rate limiter: at most maxCalls allowed
// calls per key within the window. Safe for concurrent use.
type Limiter struct {
	maxCalls int
	window   time.Duration

	mu    sync.Mutex
	calls map[string][]time.Time
	now   func() time.Time
}

func NewLimiter(maxCalls int, window time.Duration) *Limiter {
	return &Limiter{
		maxCalls: maxCalls,
		window:   window,
		calls:    make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether a call for key is within budget and, if so, records
// it. A limiter with maxCalls <= 0 allows everything.
func (l *Limiter) Allow(key string) bool {
	if l.maxCalls <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.calls[key][:0]
	for _, t := range l.calls[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.maxCalls {
		l.calls[key] = recent
		return false
	}

	l.calls[key] = append(recent, now)
	return true
}
