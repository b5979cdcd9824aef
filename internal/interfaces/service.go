package interfaces

import (
	"context"

	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/shopspring/decimal"
)

// Commands accepted by the order service.

type HalfCommand struct {
	PizzaID            int
	ExtraIDs           []int
	RemovedIngredients []string
}

type OrderItemCommand struct {
	PizzaID            int
	ExtraIDs           []int
	RemovedIngredients []string
	SecondHalf         *HalfCommand
	Quantity           int
	Note               string
}

type CreateOrderCommand struct {
	Customer       domain.Customer
	Items          []OrderItemCommand
	DiscountAmount decimal.Decimal
}

type TransitionCommand struct {
	OrderID int
	Next    domain.Status
	Reason  string
	Actor   string
}

type UpdateItemsCommand struct {
	OrderID        int
	Items          []OrderItemCommand
	DiscountAmount decimal.Decimal
}

// OrderService is the write side of the order lifecycle.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	ApplyTransition(ctx context.Context, cmd TransitionCommand) (*domain.Order, error)
	UpdateItems(ctx context.Context, cmd UpdateItemsCommand) (*domain.Order, error)
	GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusHistoryRecord, error)
}
