package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/logger"
	"github.com/YelzhanWeb/pizzeria-core/internal/app/pricing"
	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
)

// Service owns order creation and status transitions. Every status
// mutation goes through the transition table and lands as one
// append-only history record; transitions are serialized per order by
// the repository's conditional update.
type Service struct {
	orders  interfaces.OrderRepository
	pricing *pricing.Service
	stats   interfaces.CustomerStatsRefresher
	events  interfaces.EventSink
	logger  logger.Logger
	now     func() time.Time
}

func NewService(
	orders interfaces.OrderRepository,
	pricingSvc *pricing.Service,
	stats interfaces.CustomerStatsRefresher,
	events interfaces.EventSink,
	lgr logger.Logger,
) *Service {
	return &Service{
		orders:  orders,
		pricing: pricingSvc,
		stats:   stats,
		events:  events,
		logger:  lgr,
		now:     time.Now,
	}
}

// CreateOrder prices the items, persists the order transactionally and
// emits nuevo_pedido. Nothing is persisted when pricing fails.
func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	if err := validateCreate(cmd); err != nil {
		return nil, err
	}

	summary, err := s.pricing.ComputeOrderSummary(ctx, cmd.Items, cmd.DiscountAmount)
	if err != nil {
		return nil, err
	}

	order := domain.NewOrder(cmd.Customer, buildItems(cmd.Items, summary), summary.Total)
	order.CreatedAt = s.now()
	order.UpdatedAt = order.CreatedAt

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to create order", "", nil, err)
		return nil, err
	}
	s.logger.Debug("order_created", "Order created", "", map[string]interface{}{"order_id": order.ID})

	s.events.Publish(interfaces.LifecycleEvent{
		Type:  interfaces.EventNuevoPedido,
		Order: order,
		At:    order.CreatedAt,
	})

	return order, nil
}

// ApplyTransition validates the status change, applies it atomically
// against the persisted status and emits cambio_estado. A request that
// loses the race fails with a conflict; history stays untouched.
func (s *Service) ApplyTransition(ctx context.Context, cmd interfaces.TransitionCommand) (*domain.Order, error) {
	if !domain.IsValidStatus(cmd.Next) {
		return nil, &domain.ValidationError{Field: "status", Message: "unknown status: " + string(cmd.Next)}
	}

	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	expected := order.Status
	rec, err := order.TransitionTo(cmd.Next, cmd.Reason, cmd.Actor, s.now())
	if err != nil {
		s.logger.Debug("transition_rejected", "Invalid status transition", "", map[string]interface{}{
			"order_id": order.ID,
			"from":     string(expected),
			"to":       string(cmd.Next),
		})
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, expected, rec); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if cmd.Next.IsTerminal() {
		// Aggregate recompute is delegated; a failure here must not
		// undo an already-committed transition.
		if err := s.stats.Refresh(ctx, order.CustomerID); err != nil {
			s.logger.Error("stats_refresh_failed", "Failed to refresh customer stats", "", map[string]interface{}{
				"customer_id": order.CustomerID,
			}, err)
		}
	}

	s.events.Publish(interfaces.LifecycleEvent{
		Type:  interfaces.EventCambioEstado,
		Order: order,
		At:    rec.ChangedAt,
	})

	return order, nil
}

// UpdateItems reprices and replaces the items of a non-terminal order
// and emits pedido_actualizado.
func (s *Service) UpdateItems(ctx context.Context, cmd interfaces.UpdateItemsCommand) (*domain.Order, error) {
	if len(cmd.Items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Message: "order must contain at least 1 item"}
	}

	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, &domain.BusinessError{
			Code:    "pedido_finalizado",
			Message: "cannot edit an order in status " + string(order.Status),
		}
	}

	summary, err := s.pricing.ComputeOrderSummary(ctx, cmd.Items, cmd.DiscountAmount)
	if err != nil {
		return nil, err
	}

	order.Items = buildItems(cmd.Items, summary)
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	order.Total = summary.Total
	order.UpdatedAt = s.now()

	if err := s.orders.UpdateItems(ctx, order); err != nil {
		return nil, err
	}

	s.events.Publish(interfaces.LifecycleEvent{
		Type:  interfaces.EventPedidoActualizado,
		Order: order,
		At:    order.UpdatedAt,
	})

	return order, nil
}

// GetStatusHistory returns the append-only status log of an order.
func (s *Service) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusHistoryRecord, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.GetStatusHistory(ctx, orderID)
}

func validateCreate(cmd interfaces.CreateOrderCommand) error {
	if strings.TrimSpace(cmd.Customer.Name) == "" {
		return &domain.ValidationError{Field: "customer_name", Message: "customer name is required"}
	}
	if len(cmd.Items) == 0 {
		return &domain.ValidationError{Field: "items", Message: "order must contain at least 1 item"}
	}
	for i, item := range cmd.Items {
		if item.Quantity < 1 {
			return &domain.ValidationError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "item quantity must be at least 1",
			}
		}
	}
	return nil
}

// buildItems pairs each item command with its breakdown. Summaries are
// computed from the same command slice, so indexes line up.
func buildItems(cmds []interfaces.OrderItemCommand, summary *pricing.OrderSummary) []domain.OrderItem {
	items := make([]domain.OrderItem, len(cmds))
	for i, cmd := range cmds {
		breakdown := summary.Items[i]
		item := domain.OrderItem{
			PizzaID:            cmd.PizzaID,
			PizzaName:          breakdown.PizzaName,
			Quantity:           cmd.Quantity,
			ExtraIDs:           cmd.ExtraIDs,
			RemovedIngredients: cmd.RemovedIngredients,
			Note:               cmd.Note,
			Price:              breakdown.Total,
		}
		if cmd.SecondHalf != nil {
			half := &domain.HalfSpec{
				PizzaID:            cmd.SecondHalf.PizzaID,
				ExtraIDs:           cmd.SecondHalf.ExtraIDs,
				RemovedIngredients: cmd.SecondHalf.RemovedIngredients,
			}
			if breakdown.IsHalfAndHalf() {
				half.PizzaName = breakdown.Halves[1].PizzaName
			}
			item.SecondHalf = half
		}
		items[i] = item
	}
	return items
}
