package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
)

// Logical rooms events are broadcast to.
const (
	RoomCocina = "cocina"
	RoomAdmin  = "admin"
)

// Lifecycle event names.
const (
	EventNuevoPedido       = "nuevo_pedido"
	EventCambioEstado      = "cambio_estado"
	EventPedidoActualizado = "pedido_actualizado"
	EventAlertaTiempo      = "alerta_tiempo"
)

// Broadcaster is the transport collaborator that pushes events to
// subscribed clients. The concrete transport is an adapter concern.
type Broadcaster interface {
	Broadcast(ctx context.Context, room, event string, payload any) error
}

// TimeAlert is raised once per threshold crossing by the coordinator tick.
type TimeAlert struct {
	OrderID        int             `json:"order_id"`
	Priority       domain.Priority `json:"priority"`
	ElapsedMinutes int             `json:"elapsed_minutes"`
}

// LifecycleEvent is one order lifecycle occurrence flowing into the
// notification dispatcher.
type LifecycleEvent struct {
	Type  string
	Order *domain.Order
	Alert *TimeAlert
	At    time.Time
}

// EventSink receives lifecycle events. Implemented by the notification
// dispatcher; never blocks the caller beyond queue admission.
type EventSink interface {
	Publish(evt LifecycleEvent)
}
