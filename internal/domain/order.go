package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer references the person the order belongs to. Aggregate
// fields are recomputed by the stats refresher, never by the core.
type Customer struct {
	ID         int
	Name       string
	Phone      string
	OrderCount int
	TotalSpent decimal.Decimal
}

// HalfSpec configures the second half of a half-and-half pizza.
type HalfSpec struct {
	PizzaID            int
	PizzaName          string
	ExtraIDs           []int
	RemovedIngredients []string
}

// OrderItem is one priced line of an order. SecondHalf is non-nil iff
// the item is a half-and-half pizza.
type OrderItem struct {
	ID                 int
	OrderID            int
	PizzaID            int
	PizzaName          string
	Quantity           int
	ExtraIDs           []int
	RemovedIngredients []string
	SecondHalf         *HalfSpec
	Note               string
	Price              decimal.Decimal
}

// IsHalfAndHalf reports whether the item carries two pizza references.
func (i OrderItem) IsHalfAndHalf() bool {
	return i.SecondHalf != nil
}

// Order is a restaurant order. Orders are never physically deleted;
// cancellation and delivery are statuses.
type Order struct {
	ID            int
	CustomerID    int
	CustomerName  string
	CustomerPhone string
	Items         []OrderItem
	Status        Status
	Total         decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
	History       []StatusHistoryRecord
}

// NewOrder creates an order in the initial status.
func NewOrder(customer Customer, items []OrderItem, total decimal.Decimal) *Order {
	now := time.Now()
	return &Order{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		Items:         items,
		Status:        StatusNuevo,
		Total:         total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// TransitionTo validates the status change against the transition
// table, mutates the order and appends a history record. The caller
// is responsible for persisting both atomically.
func (o *Order) TransitionTo(next Status, reason, actor string, at time.Time) (*StatusHistoryRecord, error) {
	if !IsValidTransition(o.Status, next) {
		return nil, &BusinessError{
			Code:    "invalid_transition",
			Message: "invalid transition: " + string(o.Status) + " -> " + string(next),
		}
	}

	rec := StatusHistoryRecord{
		OrderID:   o.ID,
		From:      o.Status,
		To:        next,
		Reason:    reason,
		Actor:     actor,
		ChangedAt: at,
	}

	o.Status = next
	o.UpdatedAt = at
	o.History = append(o.History, rec)

	return &rec, nil
}

// StatusHistoryRecord is one append-only entry of the status log.
type StatusHistoryRecord struct {
	ID        int
	OrderID   int
	From      Status
	To        Status
	Reason    string
	Actor     string
	ChangedAt time.Time
}

// TimerState is the run state of an order timer.
type TimerState string

const (
	TimerRunning   TimerState = "running"
	TimerPaused    TimerState = "paused"
	TimerCompleted TimerState = "completed"
)

// OrderTimer tracks elapsed preparation time for one active order.
// It exists only while the order is in a trackable status.
type OrderTimer struct {
	OrderID   int
	StartedAt time.Time
	State     TimerState
	// Frozen holds the final elapsed value once the timer completes.
	Frozen time.Duration
	// LastElapsedMin is the elapsed value (whole minutes) seen by the
	// previous coordinator tick, used for edge-triggered alerts.
	LastElapsedMin int
}

// Elapsed returns the timer's elapsed duration as of now.
func (t *OrderTimer) Elapsed(now time.Time) time.Duration {
	if t.State == TimerCompleted {
		return t.Frozen
	}
	return now.Sub(t.StartedAt)
}
