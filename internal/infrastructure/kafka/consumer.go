package kafka

import (
	"context"
	"log/slog"

	"github.com/example/shopwise/internal/logging"
	"github.com/segmentio/kafka-go"
)

// MessageHandler matches the HandleEvent method of the projector and the
// notifier.
type MessageHandler func(ctx context.Context, key, value []byte) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads the event topic as part of a consumer group. Offsets are
// committed by the reader, so a failed message is logged and skipped.
type Consumer struct {
	reader messageReader
	logger *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return newConsumer(reader, groupID)
}

func newConsumer(r messageReader, groupID string) *Consumer {
	return &Consumer{reader: r, logger: logging.Component("kafka-consumer").With("group", groupID)}
}

// Consume blocks until ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.ErrorContext(ctx, "read message failed", "error", err)
			continue
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			c.logger.ErrorContext(ctx, "handle message failed",
				"key", string(msg.Key), "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
