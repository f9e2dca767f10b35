package publish

import (
	"context"

	kafka "github.com/segmentio/kafka-go"
)

// KafkaBus publishes envelopes to a Kafka topic-per-event-name layout,
// using the partition key (the game_id) so a single game's events stay
// in order within a partition even though global ordering across the
// whole bus is not guaranteed.
type KafkaBus struct {
	writer *kafka.Writer
}

// NewKafkaBus creates a writer against brokers. Topic is selected
// per-message by Publish's topic argument via a topic-less writer
// configured to route by message.Topic.
func NewKafkaBus(brokers []string) *KafkaBus {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &KafkaBus{writer: w}
}

func (b *KafkaBus) Publish(ctx context.Context, topic string, key string, body []byte) error {
	return b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: body,
	})
}

func (b *KafkaBus) Close() error {
	return b.writer.Close()
}
