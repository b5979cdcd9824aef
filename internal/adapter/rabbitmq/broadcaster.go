package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the durable topic exchange carrying room broadcasts.
// Routing keys are "<room>.<event>".
const ExchangeName = "pedidos_topic"

// Envelope is the wire format of a room broadcast.
type Envelope struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
}

type broadcaster struct {
	conn Connection
}

// NewBroadcaster returns the transport collaborator used by the
// notification dispatcher.
func NewBroadcaster(conn Connection) interfaces.Broadcaster {
	return &broadcaster{conn: conn}
}

func (b *broadcaster) Broadcast(ctx context.Context, room, event string, payload any) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	body, err := json.Marshal(Envelope{
		Room:    room,
		Event:   event,
		Payload: raw,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	routingKey := room + "." + event
	err = ch.Publish(ExchangeName, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish broadcast: %w", err)
	}

	return nil
}
