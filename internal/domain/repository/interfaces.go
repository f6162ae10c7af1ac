package repository

import (
	"context"
	"time"

	"FxBias/internal/domain/models"
)

// SnapshotRepository persists one analysis snapshot per UTC date.
type SnapshotRepository interface {
	// Upsert replaces the snapshot stored under s.Date, or creates it.
	Upsert(ctx context.Context, s *models.AnalysisSnapshot) error
	// Latest returns the snapshot with the greatest date or models.ErrNotFound.
	Latest(ctx context.Context) (*models.AnalysisSnapshot, error)
	// History returns every snapshot, oldest first.
	History(ctx context.Context) ([]models.AnalysisSnapshot, error)
}

type OverrideRepository interface {
	Append(ctx context.Context, r *models.OverrideRecord) error
}

// EventPublisher announces finished runs and recorded overrides.
type EventPublisher interface {
	PublishRun(ctx context.Context, s *models.RunSummary) error
	PublishOverride(ctx context.Context, r *models.OverrideRecord) error
}

// RunLock guards against two instances running the analysis at the same time.
type RunLock interface {
	// Acquire returns ok=false with the holder's start time when another owner holds the lock.
	Acquire(ctx context.Context, owner string, startedAt time.Time) (ok bool, holderStartedAt time.Time, err error)
	Release(ctx context.Context, owner string) error
}

type Metrics interface {
	RecordRun(outcome models.RunOutcome, seconds float64)
	RecordIndicator(currency, outcome string)
	RecordRiskModifier(modifier int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
