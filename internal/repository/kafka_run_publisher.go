package repository

import (
	"context"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	pkgkafka "DemandCast/pkg/kafka"
)

// KafkaRunPublisher announces completed forecast runs for downstream
// dashboard consumers. Publish failures are the caller's to log; they never
// fail a run.
type KafkaRunPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaRunPublisher creates a run-event publisher.
func NewKafkaRunPublisher(producer *pkgkafka.Producer, topic string) *KafkaRunPublisher {
	return &KafkaRunPublisher{producer: producer, topic: topic}
}

func (p *KafkaRunPublisher) PublishRunCompleted(ctx context.Context, summary models.RunSummary) error {
	return p.producer.Publish(ctx, p.topic, []byte(summary.RunID), summary)
}

func (p *KafkaRunPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.RunPublisher = (*KafkaRunPublisher)(nil)
