package repository

import (
	"context"
	"time"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/domain/repository"
	pkgkafka "ARMTS/pkg/kafka"
)

// producer is the part of *pkgkafka.Producer the publisher uses.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value any) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// RuleMessage is the payload published for every archive entry.
type RuleMessage struct {
	RunID  string              `json:"run_id"`
	Rule   string              `json:"rule"`
	Entry  models.ArchiveEntry `json:"entry"`
	SentAt time.Time           `json:"sent_at"`
}

// KafkaPublisher implements Publisher for Kafka. Messages are keyed by rule key so
// updates of one rule stay in one partition.
type KafkaPublisher struct {
	producer producer
	topic    string
	now      func() time.Time
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(p *pkgkafka.Producer, topic string) repository.Publisher {
	return newKafkaPublisher(p, topic)
}

func newKafkaPublisher(p producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic, now: time.Now}
}

func (p *KafkaPublisher) message(runID string, e models.ArchiveEntry) RuleMessage {
	return RuleMessage{RunID: runID, Rule: e.Rule.String(), Entry: e, SentAt: p.now().UTC()}
}

func (p *KafkaPublisher) Publish(ctx context.Context, runID string, e models.ArchiveEntry) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Key), p.message(runID, e))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, runID string, entries []models.ArchiveEntry) error {
	if len(entries) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(entries))
	for i, e := range entries {
		msgs[i] = pkgkafka.Message{Key: []byte(e.Key), Value: p.message(runID, e)}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
