package notify

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"messagewall/pkg/logger"
)

// Kafka publishes posted events to a Kafka topic so external snapshot
// workers (or any other consumer) can react. Kafka gives the at-least-once
// half of the contract for free; consumers own their idempotency.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka returns a notifier writing to topic via the given brokers.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{writer: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}}
}

func (k *Kafka) MessagePosted(ctx context.Context, ev PostedEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.MessageID),
		Value: b,
	}); err != nil {
		logger.Error("kafka_publish_failed", "messageId", ev.MessageID, "error", err)
		return err
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
