package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// EventHandler consumes one published event. The projector, the notifier and
// the Kafka consumer callbacks share this shape.
type EventHandler interface {
	HandleEvent(ctx context.Context, key, value []byte) error
}

// InlinePublisher delivers events in-process, used when no broker is
// configured. The primary handler runs first and its error fails the append;
// followers are best effort.
type InlinePublisher struct {
	primary   EventHandler
	followers []EventHandler
	logger    *slog.Logger
}

func NewInlinePublisher(primary EventHandler, followers ...EventHandler) *InlinePublisher {
	return &InlinePublisher{
		primary:   primary,
		followers: followers,
		logger:    slog.Default().With("component", "inline_publisher"),
	}
}

// Publish implements store.Publisher.
func (p *InlinePublisher) Publish(ctx context.Context, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.primary.HandleEvent(ctx, []byte(key), value); err != nil {
		return err
	}

	for _, h := range p.followers {
		if err := h.HandleEvent(ctx, []byte(key), value); err != nil {
			p.logger.WarnContext(ctx, "event follower failed", "key", key, "error", err)
		}
	}
	return nil
}
