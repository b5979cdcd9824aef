package rabbitmq

import (
	"context"
	"fmt"
)

// BroadcastHandler processes one raw broadcast envelope.
type BroadcastHandler func(ctx context.Context, body []byte) error

type Consumer struct {
	conn Connection
}

func NewConsumer(conn Connection) *Consumer {
	return &Consumer{conn: conn}
}

// ConsumeRoom subscribes to every event of one logical room through an
// exclusive, auto-deleted queue bound to the broadcast exchange.
func (c *Consumer) ConsumeRoom(ctx context.Context, room string, handler BroadcastHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, room+".#", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := handler(ctx, d.Body); err != nil {
				// Broadcasts are fire-and-forget; a bad message is
				// logged by the handler and skipped.
				continue
			}
		}
	}
}
