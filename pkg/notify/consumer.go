package notify

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"messagewall/pkg/logger"
)

// KafkaConsumer drives the snapshot trigger from the posted-event topic.
// Offsets are committed only after the trigger succeeds, so a failed
// rebuild is redelivered. At-least-once delivery is fine because the
// builder is idempotent.
type KafkaConsumer struct {
	reader *kafka.Reader
}

// NewKafkaConsumer subscribes the given consumer group to the topic.
func NewKafkaConsumer(brokers []string, topic, group string) *KafkaConsumer {
	return &KafkaConsumer{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})}
}

// Run fetches events until ctx is canceled. The event payload is advisory:
// it is decoded for logging only and the trigger never depends on it.
func (c *KafkaConsumer) Run(ctx context.Context, trigger func(context.Context, PostedEvent) error) {
	defer func() {
		if err := c.reader.Close(); err != nil {
			logger.Error("kafka_reader_close_failed", "error", err)
		}
	}()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("kafka_consumer_stopping")
				return
			}
			logger.Error("kafka_fetch_failed", "error", err)
			continue
		}
		var ev PostedEvent
		_ = json.Unmarshal(msg.Value, &ev)
		if err := trigger(ctx, ev); err != nil {
			logger.Error("notify_trigger_failed", "messageId", ev.MessageID, "error", err)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Error("kafka_commit_failed", "error", err)
		}
	}
}
