package web

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter throttles per key (typically client IP). Idle limiters are
// pruned so the map does not grow without bound.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedEntry
	limit    rate.Limit
	burst    int
}

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewKeyedLimiter(perSecond float64, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: map[string]*keyedEntry{},
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow reports whether the key has budget for one more event.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &keyedEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	l.mu.Unlock()
	return entry.limiter.Allow()
}

// Prune drops limiters idle longer than maxIdle.
func (l *KeyedLimiter) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}
