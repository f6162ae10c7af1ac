package usecase

import (
	"context"

	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
)

// AnalysisQuery serves stored snapshots to readers.
type AnalysisQuery struct {
	snapshots domrepo.SnapshotRepository
}

func NewAnalysisQuery(snapshots domrepo.SnapshotRepository) *AnalysisQuery {
	return &AnalysisQuery{snapshots: snapshots}
}

// Latest returns the most recent snapshot or models.ErrNotFound.
func (q *AnalysisQuery) Latest(ctx context.Context) (*models.AnalysisSnapshot, error) {
	return q.snapshots.Latest(ctx)
}

// History returns snapshots oldest first, limited to [from, to] when either
// bound is set. Bounds are date keys and inclusive.
func (q *AnalysisQuery) History(ctx context.Context, from, to string) ([]models.AnalysisSnapshot, error) {
	all, err := q.snapshots.History(ctx)
	if err != nil {
		return nil, err
	}
	if from == "" && to == "" {
		return all, nil
	}

	out := make([]models.AnalysisSnapshot, 0, len(all))
	for _, s := range all {
		if from != "" && s.Date < from {
			continue
		}
		if to != "" && s.Date > to {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
