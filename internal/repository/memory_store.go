package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
)

// MemorySnapshotStore keeps snapshots in process. Documents are stored
// encoded so callers never share maps with the store.
type MemorySnapshotStore struct {
	mu     sync.RWMutex
	byDate map[string][]byte
}

var _ domrepo.SnapshotRepository = (*MemorySnapshotStore)(nil)

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{byDate: make(map[string][]byte)}
}

func (s *MemorySnapshotStore) Upsert(_ context.Context, snap *models.AnalysisSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	s.mu.Lock()
	s.byDate[snap.Date] = b
	s.mu.Unlock()
	return nil
}

func (s *MemorySnapshotStore) Latest(_ context.Context) (*models.AnalysisSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := ""
	for d := range s.byDate {
		if d > latest {
			latest = d
		}
	}
	if latest == "" {
		return nil, models.ErrNotFound
	}
	var snap models.AnalysisSnapshot
	if err := json.Unmarshal(s.byDate[latest], &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *MemorySnapshotStore) History(_ context.Context) ([]models.AnalysisSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]string, 0, len(s.byDate))
	for d := range s.byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]models.AnalysisSnapshot, 0, len(dates))
	for _, d := range dates {
		var snap models.AnalysisSnapshot
		if err := json.Unmarshal(s.byDate[d], &snap); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

type MemoryOverrideStore struct {
	mu      sync.Mutex
	records []models.OverrideRecord
}

var _ domrepo.OverrideRepository = (*MemoryOverrideStore)(nil)

func NewMemoryOverrideStore() *MemoryOverrideStore {
	return &MemoryOverrideStore{}
}

func (s *MemoryOverrideStore) Append(_ context.Context, r *models.OverrideRecord) error {
	s.mu.Lock()
	s.records = append(s.records, *r)
	s.mu.Unlock()
	return nil
}

// Records returns a copy of everything appended so far, oldest first.
func (s *MemoryOverrideStore) Records() []models.OverrideRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OverrideRecord(nil), s.records...)
}
