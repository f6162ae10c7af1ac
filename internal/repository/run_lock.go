package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	domrepo "FxBias/internal/domain/repository"
	"FxBias/pkg/cache"
)

const runLockKey = "lock:analysis"

// CacheRunLock is a lease in the shared cache. The stored value is
// "<owner>|<start time>" so a rejected caller can report when the holder began.
// The TTL bounds how long a crashed instance can block others.
type CacheRunLock struct {
	cache cache.Service
	ttl   time.Duration

	mu   sync.Mutex
	held map[string]string // owner -> stored value
}

var _ domrepo.RunLock = (*CacheRunLock)(nil)

func NewCacheRunLock(c cache.Service, ttl time.Duration) *CacheRunLock {
	return &CacheRunLock{cache: c, ttl: ttl, held: make(map[string]string)}
}

func (l *CacheRunLock) Acquire(ctx context.Context, owner string, startedAt time.Time) (bool, time.Time, error) {
	value := owner + "|" + startedAt.UTC().Format(time.RFC3339Nano)
	ok, err := l.cache.TryLock(ctx, runLockKey, value, l.ttl)
	if err != nil {
		return false, time.Time{}, err
	}
	if ok {
		l.mu.Lock()
		l.held[owner] = value
		l.mu.Unlock()
		return true, startedAt, nil
	}

	var current string
	if err := l.cache.Get(ctx, runLockKey, &current); err != nil {
		return false, time.Time{}, nil
	}
	return false, holderStart(current), nil
}

func (l *CacheRunLock) Release(ctx context.Context, owner string) error {
	l.mu.Lock()
	value, ok := l.held[owner]
	delete(l.held, owner)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	return l.cache.Unlock(ctx, runLockKey, value)
}

func holderStart(value string) time.Time {
	_, ts, ok := strings.Cut(value, "|")
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
