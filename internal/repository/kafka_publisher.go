package repository

import (
	"context"
	"time"

	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
)

// MessagePublisher is the producer surface used for events; *kafka.Producer satisfies it.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// Event is the envelope written to the events topic.
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

const (
	EventRunFinished      = "analysis.run.finished"
	EventOverrideRecorded = "override.recorded"
)

// KafkaEventPublisher announces finished runs keyed by run ID and overrides
// keyed by currency.
type KafkaEventPublisher struct {
	producer MessagePublisher
	topic    string
	now      func() time.Time
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)

func NewKafkaEventPublisher(producer MessagePublisher, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic, now: time.Now}
}

func (p *KafkaEventPublisher) PublishRun(ctx context.Context, s *models.RunSummary) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.RunID), Event{
		Type:       EventRunFinished,
		OccurredAt: p.now().UTC(),
		Payload:    s,
	})
}

func (p *KafkaEventPublisher) PublishOverride(ctx context.Context, r *models.OverrideRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.CurrencyCode), Event{
		Type:       EventOverrideRecorded,
		OccurredAt: p.now().UTC(),
		Payload:    r,
	})
}

// NoopEventPublisher is used when Kafka is disabled.
type NoopEventPublisher struct{}

var _ domrepo.EventPublisher = NoopEventPublisher{}

func (NoopEventPublisher) PublishRun(context.Context, *models.RunSummary) error { return nil }

func (NoopEventPublisher) PublishOverride(context.Context, *models.OverrideRecord) error { return nil }
