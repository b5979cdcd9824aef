package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/logger"
	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/pizzeria-core/internal/app/notification"
)

// NotificationHandler feeds the console subscriber mode: it decodes
// room broadcasts and prints one readable line per notification.
type NotificationHandler struct {
	logger logger.Logger
}

func NewNotificationHandler(lgr logger.Logger) *NotificationHandler {
	return &NotificationHandler{logger: lgr}
}

func (h *NotificationHandler) HandleBroadcast(ctx context.Context, body []byte) error {
	var env rabbitmq.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.logger.Error("broadcast_decode_failed", "Failed to decode broadcast envelope", "", nil, err)
		return err
	}

	var n notification.Notification
	if err := json.Unmarshal(env.Payload, &n); err != nil {
		h.logger.Error("notification_decode_failed", "Failed to decode notification payload", "", map[string]interface{}{
			"event": env.Event,
		}, err)
		return err
	}

	details := map[string]interface{}{
		"room":  env.Room,
		"count": n.Count,
		"audio": n.Audio,
	}
	for _, o := range n.Orders {
		details["order_ids"] = append(asIntSlice(details["order_ids"]), o.ID)
	}
	for _, a := range n.Alerts {
		details["alerts"] = append(asStringSlice(details["alerts"]),
			fmt.Sprintf("order %d %s (%d min)", a.OrderID, a.Priority, a.ElapsedMinutes))
	}

	h.logger.Info("notification_received", fmt.Sprintf("[%s] %s x%d", env.Room, env.Event, n.Count), "", details)
	return nil
}

func asIntSlice(v interface{}) []int {
	if s, ok := v.([]int); ok {
		return s
	}
	return nil
}

func asStringSlice(v interface{}) []string {
	if s, ok := v.([]string); ok {
		return s
	}
	return nil
}
