package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"FxBias/internal/domain/models"
	pkgkafka "FxBias/pkg/kafka"
	xlogger "FxBias/pkg/logger"
)

// Launcher starts an analysis run.
type Launcher interface {
	Launch(ctx context.Context, currencies []string) (*models.LaunchResult, error)
}

// TriggerHandler launches runs requested over Kafka.
type TriggerHandler struct {
	topic    string
	launcher Launcher
	validate *validator.Validate
	l        *xlogger.Logger
}

func NewTriggerHandler(topic string, launcher Launcher, l *xlogger.Logger) *TriggerHandler {
	if l == nil {
		l = xlogger.NewNop()
	}
	return &TriggerHandler{topic: topic, launcher: launcher, validate: validator.New(), l: l}
}

func (h *TriggerHandler) Topic() string { return h.topic }

// Handle accepts an empty payload or a TriggerMessage. A trigger arriving while
// a run is active is dropped, not retried.
func (h *TriggerHandler) Handle(ctx context.Context, b []byte) error {
	var msg models.TriggerMessage
	if len(bytes.TrimSpace(b)) > 0 {
		if err := json.Unmarshal(b, &msg); err != nil {
			return fmt.Errorf("decode trigger: %w", err)
		}
	}
	if err := h.validate.Struct(msg); err != nil {
		return fmt.Errorf("invalid trigger: %w", err)
	}

	res, err := h.launcher.Launch(ctx, msg.Currencies)
	var conflict *models.JobConflictError
	switch {
	case errors.As(err, &conflict):
		h.l.Info("trigger ignored, analysis already running",
			xlogger.String("requested_by", msg.RequestedBy),
			xlogger.Any("started_at", conflict.StartedAt),
		)
		return nil
	case err != nil:
		return err
	}

	h.l.Info("analysis triggered from kafka",
		xlogger.String("run_id", res.RunID),
		xlogger.String("requested_by", msg.RequestedBy),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*TriggerHandler)(nil)
