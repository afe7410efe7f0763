package repository

import (
	"context"
	"fmt"
	"strconv"

	"GrowthSim/internal/domain/models"
	pkgkafka "GrowthSim/pkg/kafka"
)

// KafkaPublisher ships rebalance snapshots to a Kafka topic, keyed by
// sequence so a partitioned topic preserves interval order per partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (k *KafkaPublisher) Publish(ctx context.Context, s *models.Snapshot) error {
	key := []byte(strconv.Itoa(s.Sequence))
	if err := k.producer.Publish(ctx, k.topic, key, s); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}
