package interfaces

import (
	"context"

	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
)

// MenuRepository resolves menu references during pricing.
type MenuRepository interface {
	// GetPizza returns domain.NotFoundError when the id does not resolve.
	GetPizza(ctx context.Context, id int) (*domain.Pizza, error)
	// GetExtras silently omits unknown and inactive ids; callers
	// reconcile counts.
	GetExtras(ctx context.Context, ids []int) ([]domain.Extra, error)
	// ListActiveExtras returns every active extra for menu display.
	ListActiveExtras(ctx context.Context) ([]domain.Extra, error)
}

// OrderRepository persists orders, items and the status log.
type OrderRepository interface {
	// Create stores the order, its items and the initial history record
	// in one transaction, filling generated ids.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int) (*domain.Order, error)
	// ListActive returns orders in a trackable status, items included.
	ListActive(ctx context.Context) ([]*domain.Order, error)
	// UpdateItems replaces the order's items and total.
	UpdateItems(ctx context.Context, order *domain.Order) error
	// UpdateStatus performs a conditional update keyed on the expected
	// current status and appends the history record in the same
	// transaction. Returns domain.ConflictError when the order has
	// already moved past expected.
	UpdateStatus(ctx context.Context, orderID int, expected domain.Status, rec *domain.StatusHistoryRecord) error
	GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusHistoryRecord, error)
}

// CustomerStatsRefresher recomputes a customer's aggregate order count
// and spend. Invoked after an order enters a terminal status.
type CustomerStatsRefresher interface {
	Refresh(ctx context.Context, customerID int) error
}
