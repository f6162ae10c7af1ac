package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
	xlogger "FxBias/pkg/logger"
)

const (
	msgOverrideMissing    = "Missing required fields: type, currencyCode, originalValue, overriddenValue."
	msgOverrideType       = `Field "type" must be one of: score, bias.`
	msgOverrideIndicator  = `Field "indicator" is required for a "score" override.`
	msgOverrideScoreValue = `Values for a "score" override must be numbers.`
)

func msgOverrideBiasValue() string {
	labels := make([]string, len(models.BiasValues))
	for i, b := range models.BiasValues {
		labels[i] = string(b)
	}
	return `Values for a "bias" override must be one of: ` + strings.Join(labels, ", ")
}

// OverrideLedger validates manual corrections and appends them to the audit log.
type OverrideLedger struct {
	repo      domrepo.OverrideRepository
	publisher domrepo.EventPublisher
	validate  *validator.Validate
	now       func() time.Time
	l         *xlogger.Logger
}

func NewOverrideLedger(repo domrepo.OverrideRepository, publisher domrepo.EventPublisher, l *xlogger.Logger) *OverrideLedger {
	if l == nil {
		l = xlogger.NewNop()
	}
	return &OverrideLedger{
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(),
		now:       time.Now,
		l:         l,
	}
}

// Record validates req and appends it. Rejections are *models.ValidationError;
// nothing is written for a rejected request.
func (o *OverrideLedger) Record(ctx context.Context, req models.OverrideRequest) (*models.OverrideRecord, error) {
	if err := o.check(req); err != nil {
		return nil, err
	}

	rec := &models.OverrideRecord{
		ID:              uuid.NewString(),
		Timestamp:       o.now().UTC(),
		Type:            models.OverrideType(req.Type),
		CurrencyCode:    req.CurrencyCode,
		OriginalValue:   req.OriginalValue,
		OverriddenValue: req.OverriddenValue,
		Justification:   req.Justification,
	}
	if rec.Type == models.OverrideScore {
		rec.Indicator = req.Indicator
	}

	if err := o.repo.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append override: %w", err)
	}

	if o.publisher != nil {
		if err := o.publisher.PublishOverride(ctx, rec); err != nil {
			o.l.Warn("override event publish failed", xlogger.String("id", rec.ID), xlogger.Error(err))
		}
	}

	o.l.Info("override recorded",
		xlogger.String("id", rec.ID),
		xlogger.String("type", string(rec.Type)),
		xlogger.String("currency", rec.CurrencyCode),
		xlogger.String("indicator", rec.Indicator),
	)
	return rec, nil
}

// check applies the rules in a fixed order and reports the first violation.
// For bias overrides only the overridden value is checked against the label set.
func (o *OverrideLedger) check(req models.OverrideRequest) error {
	if req.Type == "" || req.CurrencyCode == "" || req.OriginalValue == nil || req.OverriddenValue == nil {
		return &models.ValidationError{Message: msgOverrideMissing}
	}
	if err := o.validate.Var(req.Type, "oneof=score bias"); err != nil {
		return &models.ValidationError{Field: "type", Message: msgOverrideType}
	}

	switch models.OverrideType(req.Type) {
	case models.OverrideScore:
		if req.Indicator == "" {
			return &models.ValidationError{Field: "indicator", Message: msgOverrideIndicator}
		}
		_, origOK := req.OriginalValue.(float64)
		_, overOK := req.OverriddenValue.(float64)
		if !origOK || !overOK {
			return &models.ValidationError{Field: "overriddenValue", Message: msgOverrideScoreValue}
		}
	case models.OverrideBias:
		_, origOK := req.OriginalValue.(string)
		over, overOK := req.OverriddenValue.(string)
		if !origOK || !overOK || !models.Bias(over).Valid() {
			return &models.ValidationError{Field: "overriddenValue", Message: msgOverrideBiasValue()}
		}
	}
	return nil
}
