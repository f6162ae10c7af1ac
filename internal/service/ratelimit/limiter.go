package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per key, used to throttle launches per client.
// Every key shares the same burst and refill rate.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*entry
	limit rate.Limit
	burst int
	now   func() time.Time
}

// New allows bursts of capacity and perMinute sustained requests per key.
func New(capacity, perMinute float64) *Limiter {
	return &Limiter{
		m:     make(map[string]*entry),
		limit: rate.Limit(perMinute / 60),
		burst: int(capacity),
		now:   time.Now,
	}
}

// Allow consumes one token for key if available.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// Prune forgets keys not seen for idle whose bucket has refilled completely.
func (l *Limiter) Prune(idle time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.m {
		if now.Sub(e.seen) >= idle && e.lim.TokensAt(now) >= float64(e.lim.Burst()) {
			delete(l.m, k)
		}
	}
}
