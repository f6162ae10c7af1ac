package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
	pkgch "FxBias/pkg/clickhouse"
	xlogger "FxBias/pkg/logger"
)

// CHSnapshotStore keeps one JSON document per date in a ReplacingMergeTree.
type CHSnapshotStore struct {
	db    *sql.DB
	table string
	l     *xlogger.Logger
}

var _ domrepo.SnapshotRepository = (*CHSnapshotStore)(nil)

func NewCHSnapshotStore(ch *pkgch.Client, database string, l *xlogger.Logger) *CHSnapshotStore {
	if l == nil {
		l = xlogger.NewNop()
	}
	return &CHSnapshotStore{db: ch.DB(), table: database + "." + snapshotTable, l: l}
}

func (s *CHSnapshotStore) Upsert(ctx context.Context, snap *models.AnalysisSnapshot) error {
	day, err := time.Parse(time.DateOnly, snap.Date)
	if err != nil {
		return fmt.Errorf("snapshot date %q: %w", snap.Date, err)
	}
	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	updated := snap.UpdatedAt.UTC()
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	q := fmt.Sprintf("INSERT INTO %s (date, data, updated_at, version) VALUES (?, ?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q, day, string(data), updated, uint64(updated.UnixNano())); err != nil {
		s.l.Error("clickhouse upsert snapshot error", xlogger.String("date", snap.Date), xlogger.Error(err))
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	s.l.Info("clickhouse upsert snapshot ok",
		xlogger.String("date", snap.Date),
		xlogger.Int("currencies", len(snap.Data)),
	)
	return nil
}

func (s *CHSnapshotStore) Latest(ctx context.Context) (*models.AnalysisSnapshot, error) {
	q := fmt.Sprintf("SELECT toString(date), data, updated_at FROM %s FINAL ORDER BY date DESC LIMIT 1", s.table)
	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, q))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		s.l.Error("clickhouse latest snapshot error", xlogger.Error(err))
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

func (s *CHSnapshotStore) History(ctx context.Context) ([]models.AnalysisSnapshot, error) {
	start := time.Now()
	q := fmt.Sprintf("SELECT toString(date), data, updated_at FROM %s FINAL ORDER BY date ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse history query error", xlogger.Error(err))
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	out := make([]models.AnalysisSnapshot, 0, 64)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse history ok",
		xlogger.Int("rows", len(out)),
		xlogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row scanner) (*models.AnalysisSnapshot, error) {
	var (
		snap models.AnalysisSnapshot
		data string
	)
	if err := row.Scan(&snap.Date, &data, &snap.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &snap.Data); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.Date, err)
	}
	return &snap, nil
}
