package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
	"FxBias/pkg/cache"
	xlogger "FxBias/pkg/logger"
)

const latestSnapshotKey = "snapshot:latest"

// CachedSnapshotStore serves Latest from the cache and drops the entry on
// every write. Cache failures fall through to the underlying store.
//
// gen counts writes. A Latest that read the store before a write finished
// must not refill the cache afterwards, so it only stores its result when gen
// is unchanged; the check and the cache write happen under mu.
type CachedSnapshotStore struct {
	next  domrepo.SnapshotRepository
	cache cache.Service
	ttl   time.Duration
	l     *xlogger.Logger

	mu  sync.Mutex
	gen uint64
}

var _ domrepo.SnapshotRepository = (*CachedSnapshotStore)(nil)

func NewCachedSnapshotStore(next domrepo.SnapshotRepository, c cache.Service, ttl time.Duration, l *xlogger.Logger) *CachedSnapshotStore {
	if l == nil {
		l = xlogger.NewNop()
	}
	return &CachedSnapshotStore{next: next, cache: c, ttl: ttl, l: l}
}

func (s *CachedSnapshotStore) Upsert(ctx context.Context, snap *models.AnalysisSnapshot) error {
	err := s.next.Upsert(ctx, snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if derr := s.cache.Delete(ctx, latestSnapshotKey); derr != nil {
		s.l.Warn("latest snapshot invalidation failed", xlogger.Error(derr))
	}
	return err
}

func (s *CachedSnapshotStore) Latest(ctx context.Context) (*models.AnalysisSnapshot, error) {
	var snap models.AnalysisSnapshot
	err := s.cache.Get(ctx, latestSnapshotKey, &snap)
	if err == nil {
		return &snap, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.l.Warn("latest snapshot cache read failed", xlogger.Error(err))
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	latest, err := s.next.Latest(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return latest, nil
	}
	if err := s.cache.Set(ctx, latestSnapshotKey, latest, s.ttl); err != nil {
		s.l.Warn("latest snapshot cache write failed", xlogger.Error(err))
	}
	return latest, nil
}

func (s *CachedSnapshotStore) History(ctx context.Context) ([]models.AnalysisSnapshot, error) {
	return s.next.History(ctx)
}
