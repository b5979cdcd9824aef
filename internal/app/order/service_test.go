package order

import (
	"context"
	"sort"
	"testing"

	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/logger"
	"github.com/YelzhanWeb/pizzeria-core/internal/app/pricing"
	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMenu struct {
	pizzas map[int]domain.Pizza
	extras map[int]domain.Extra
}

func (m *fakeMenu) GetPizza(_ context.Context, id int) (*domain.Pizza, error) {
	p, ok := m.pizzas[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "pizza", ID: id}
	}
	return &p, nil
}

func (m *fakeMenu) GetExtras(_ context.Context, ids []int) ([]domain.Extra, error) {
	var out []domain.Extra
	for _, id := range ids {
		if e, ok := m.extras[id]; ok && e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *fakeMenu) ListActiveExtras(_ context.Context) ([]domain.Extra, error) {
	var out []domain.Extra
	for _, e := range m.extras {
		if e.Active {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeOrderRepo struct {
	orders  map[int]*domain.Order
	history map[int][]*domain.StatusHistoryRecord
	nextID  int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:  make(map[int]*domain.Order),
		history: make(map[int][]*domain.StatusHistoryRecord),
		nextID:  1,
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	order.ID = r.nextID
	r.nextID++
	stored := *order
	r.orders[order.ID] = &stored
	r.history[order.ID] = append(r.history[order.ID], &domain.StatusHistoryRecord{
		OrderID: order.ID, To: order.Status, ChangedAt: order.CreatedAt,
	})
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id int) (*domain.Order, error) {
	stored, ok := r.orders[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "order", ID: id}
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeOrderRepo) ListActive(_ context.Context) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.Status.IsTrackable() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateItems(_ context.Context, order *domain.Order) error {
	stored, ok := r.orders[order.ID]
	if !ok {
		return &domain.NotFoundError{Entity: "order", ID: order.ID}
	}
	stored.Items = order.Items
	stored.Total = order.Total
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, orderID int, expected domain.Status, rec *domain.StatusHistoryRecord) error {
	stored, ok := r.orders[orderID]
	if !ok {
		return &domain.NotFoundError{Entity: "order", ID: orderID}
	}
	if stored.Status != expected {
		return &domain.ConflictError{Message: "status moved"}
	}
	stored.Status = rec.To
	stored.UpdatedAt = rec.ChangedAt
	r.history[orderID] = append(r.history[orderID], rec)
	return nil
}

func (r *fakeOrderRepo) GetStatusHistory(_ context.Context, orderID int) ([]*domain.StatusHistoryRecord, error) {
	return r.history[orderID], nil
}

type fakeStats struct {
	refreshed []int
}

func (s *fakeStats) Refresh(_ context.Context, customerID int) error {
	s.refreshed = append(s.refreshed, customerID)
	return nil
}

type fakeSink struct {
	events []interfaces.LifecycleEvent
}

func (s *fakeSink) Publish(evt interfaces.LifecycleEvent) {
	s.events = append(s.events, evt)
}

func newTestService() (*Service, *fakeOrderRepo, *fakeStats, *fakeSink) {
	menu := &fakeMenu{
		pizzas: map[int]domain.Pizza{
			1: {ID: 1, Name: "Muzzarella", BasePrice: decimal.NewFromInt(500)},
			2: {ID: 2, Name: "Napolitana", BasePrice: decimal.NewFromInt(600)},
		},
		extras: map[int]domain.Extra{
			10: {ID: 10, Name: "Jamon", Price: decimal.NewFromInt(100), Active: true},
		},
	}
	repo := newFakeOrderRepo()
	stats := &fakeStats{}
	sink := &fakeSink{}
	svc := NewService(repo, pricing.NewService(menu, decimal.Zero), stats, sink, logger.NewNoop())
	return svc, repo, stats, sink
}

func createTestOrder(t *testing.T, svc *Service) *domain.Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), interfaces.CreateOrderCommand{
		Customer: domain.Customer{ID: 5, Name: "Ana", Phone: "1144556677"},
		Items: []interfaces.OrderItemCommand{
			{PizzaID: 1, ExtraIDs: []int{10}, Quantity: 1, Note: "bien cocida"},
		},
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrder(t *testing.T) {
	svc, repo, _, sink := newTestService()

	order := createTestOrder(t, svc)

	assert.Equal(t, domain.StatusNuevo, order.Status)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(600)), order.Total.String())
	assert.Equal(t, "Muzzarella", order.Items[0].PizzaName)

	stored, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNuevo, stored.Status)

	require.Len(t, sink.events, 1)
	assert.Equal(t, interfaces.EventNuevoPedido, sink.events[0].Type)
	assert.Equal(t, order.ID, sink.events[0].Order.ID)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, repo, _, sink := newTestService()

	_, err := svc.CreateOrder(context.Background(), interfaces.CreateOrderCommand{
		Customer: domain.Customer{Name: "  "},
		Items:    []interfaces.OrderItemCommand{{PizzaID: 1, Quantity: 1}},
	})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.CreateOrder(context.Background(), interfaces.CreateOrderCommand{
		Customer: domain.Customer{Name: "Ana"},
	})
	assert.True(t, domain.IsValidation(err))

	// Nothing persisted, nothing emitted.
	assert.Empty(t, repo.orders)
	assert.Empty(t, sink.events)
}

func TestCreateOrderPricingFailureIsAllOrNothing(t *testing.T) {
	svc, repo, _, sink := newTestService()

	_, err := svc.CreateOrder(context.Background(), interfaces.CreateOrderCommand{
		Customer: domain.Customer{Name: "Ana"},
		Items: []interfaces.OrderItemCommand{
			{PizzaID: 1, Quantity: 1},
			{PizzaID: 1, ExtraIDs: []int{999}, Quantity: 1},
		},
	})
	assert.True(t, domain.IsBusiness(err))
	assert.Empty(t, repo.orders)
	assert.Empty(t, sink.events)
}

func TestApplyTransition(t *testing.T) {
	svc, repo, stats, sink := newTestService()
	order := createTestOrder(t, svc)

	updated, err := svc.ApplyTransition(context.Background(), interfaces.TransitionCommand{
		OrderID: order.ID,
		Next:    domain.StatusEnPreparacion,
		Actor:   "cocinero",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnPreparacion, updated.Status)

	history, err := svc.GetStatusHistory(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.StatusNuevo, history[1].From)
	assert.Equal(t, domain.StatusEnPreparacion, history[1].To)
	assert.Equal(t, "cocinero", history[1].Actor)

	// Not terminal: no stats refresh.
	assert.Empty(t, stats.refreshed)

	require.Len(t, sink.events, 2)
	assert.Equal(t, interfaces.EventCambioEstado, sink.events[1].Type)

	_ = repo
}

func TestApplyTransitionInvalidLeavesOrderUntouched(t *testing.T) {
	svc, repo, _, sink := newTestService()
	order := createTestOrder(t, svc)

	// nuevo -> listo skips preparation and must be rejected.
	_, err := svc.ApplyTransition(context.Background(), interfaces.TransitionCommand{
		OrderID: order.ID,
		Next:    domain.StatusListo,
	})
	assert.True(t, domain.IsBusiness(err))

	stored, findErr := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, findErr)
	assert.Equal(t, domain.StatusNuevo, stored.Status)

	history, _ := repo.GetStatusHistory(context.Background(), order.ID)
	assert.Len(t, history, 1)

	// Only the creation event exists.
	assert.Len(t, sink.events, 1)
}

func TestApplyTransitionConflict(t *testing.T) {
	svc, repo, _, _ := newTestService()
	order := createTestOrder(t, svc)

	// Simulate a concurrent transition landing first.
	repo.orders[order.ID].Status = domain.StatusEnPreparacion

	_, err := svc.ApplyTransition(context.Background(), interfaces.TransitionCommand{
		OrderID: order.ID,
		Next:    domain.StatusEnPreparacion,
	})

	// The in-memory check passes against the stale read, but the
	// conditional write detects the lost race.
	assert.True(t, domain.IsConflict(err))
	history, _ := repo.GetStatusHistory(context.Background(), order.ID)
	assert.Len(t, history, 1)
}

func TestApplyTransitionUnknownStatus(t *testing.T) {
	svc, _, _, _ := newTestService()
	order := createTestOrder(t, svc)

	_, err := svc.ApplyTransition(context.Background(), interfaces.TransitionCommand{
		OrderID: order.ID,
		Next:    "pendiente",
	})
	assert.True(t, domain.IsValidation(err))
}

func TestTerminalTransitionRefreshesCustomerStats(t *testing.T) {
	svc, _, stats, sink := newTestService()
	order := createTestOrder(t, svc)

	_, err := svc.ApplyTransition(context.Background(), interfaces.TransitionCommand{
		OrderID: order.ID,
		Next:    domain.StatusCancelado,
		Reason:  "cliente se arrepintio",
	})
	require.NoError(t, err)

	assert.Equal(t, []int{5}, stats.refreshed)
	assert.Equal(t, interfaces.EventCambioEstado, sink.events[len(sink.events)-1].Type)
	assert.Equal(t, domain.StatusCancelado, sink.events[len(sink.events)-1].Order.Status)
}

func TestUpdateItems(t *testing.T) {
	svc, repo, _, sink := newTestService()
	order := createTestOrder(t, svc)

	updated, err := svc.UpdateItems(context.Background(), interfaces.UpdateItemsCommand{
		OrderID: order.ID,
		Items: []interfaces.OrderItemCommand{
			{PizzaID: 2, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.True(t, updated.Total.Equal(decimal.NewFromInt(1200)), updated.Total.String())

	stored, _ := repo.FindByID(context.Background(), order.ID)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(1200)))

	assert.Equal(t, interfaces.EventPedidoActualizado, sink.events[len(sink.events)-1].Type)
}

func TestUpdateItemsRejectedOnTerminalOrder(t *testing.T) {
	svc, repo, _, _ := newTestService()
	order := createTestOrder(t, svc)
	repo.orders[order.ID].Status = domain.StatusCancelado

	_, err := svc.UpdateItems(context.Background(), interfaces.UpdateItemsCommand{
		OrderID: order.ID,
		Items:   []interfaces.OrderItemCommand{{PizzaID: 1, Quantity: 1}},
	})
	assert.True(t, domain.IsBusiness(err))
}
