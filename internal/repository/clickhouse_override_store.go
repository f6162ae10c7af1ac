package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
	pkgch "FxBias/pkg/clickhouse"
	xlogger "FxBias/pkg/logger"
)

// CHOverrideStore appends override records. Values are stored as their JSON
// text so scores and bias labels share the columns.
type CHOverrideStore struct {
	db    *sql.DB
	table string
	l     *xlogger.Logger
}

var _ domrepo.OverrideRepository = (*CHOverrideStore)(nil)

func NewCHOverrideStore(ch *pkgch.Client, database string, l *xlogger.Logger) *CHOverrideStore {
	if l == nil {
		l = xlogger.NewNop()
	}
	return &CHOverrideStore{db: ch.DB(), table: database + "." + overrideTable, l: l}
}

func (s *CHOverrideStore) Append(ctx context.Context, r *models.OverrideRecord) error {
	orig, err := json.Marshal(r.OriginalValue)
	if err != nil {
		return fmt.Errorf("encode original value: %w", err)
	}
	over, err := json.Marshal(r.OverriddenValue)
	if err != nil {
		return fmt.Errorf("encode overridden value: %w", err)
	}

	q := fmt.Sprintf(`INSERT INTO %s (id, ts, type, currency_code, indicator, original_value, overridden_value, justification)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, q,
		r.ID,
		r.Timestamp.UTC(),
		string(r.Type),
		r.CurrencyCode,
		r.Indicator,
		string(orig),
		string(over),
		r.Justification,
	)
	if err != nil {
		s.l.Error("clickhouse append override error",
			xlogger.String("currency", r.CurrencyCode),
			xlogger.String("type", string(r.Type)),
			xlogger.Error(err),
		)
		return fmt.Errorf("append override: %w", err)
	}
	return nil
}
