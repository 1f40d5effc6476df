package events

import (
	"context"
	"time"

	"tradevision/internal/domain/models"
	"tradevision/pkg/kafka"
)

// SignalCreatedEvent is the message emitted after a signal commit for
// downstream consumers (dashboards, notifiers, archival).
type SignalCreatedEvent struct {
	SignalID    int64            `json:"signal_id"`
	Symbol      string           `json:"symbol"`
	TF          string           `json:"tf"`
	Direction   models.Direction `json:"direction"`
	TS          time.Time        `json:"ts"`
	EnterAt     time.Time        `json:"enter_at"`
	ExpireAt    time.Time        `json:"expire_at"`
	PublishedAt time.Time        `json:"published_at"`
}

// Publisher emits post-commit domain events. Failures are logged by the
// caller and never unwind the commit.
type Publisher interface {
	SignalCreated(ctx context.Context, s *models.Signal) error
	Close() error
}

// KafkaPublisher publishes events to a Kafka topic, keyed by symbol so one
// instrument's events stay ordered within a partition.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka-backed publisher.
func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

var _ Publisher = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) SignalCreated(ctx context.Context, s *models.Signal) error {
	ev := SignalCreatedEvent{
		SignalID:    s.ID,
		Symbol:      s.Symbol,
		TF:          s.TF,
		Direction:   s.Direction,
		TS:          s.TS,
		EnterAt:     s.EnterAt,
		ExpireAt:    s.ExpireAt,
		PublishedAt: time.Now().UTC(),
	}
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), ev)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher discards events. Used when Kafka is disabled.
type NoopPublisher struct{}

var _ Publisher = (*NoopPublisher)(nil)

func (NoopPublisher) SignalCreated(context.Context, *models.Signal) error { return nil }
func (NoopPublisher) Close() error                                        { return nil }
