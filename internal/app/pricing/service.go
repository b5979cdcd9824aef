package pricing

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
	"github.com/shopspring/decimal"
)

// DefaultRemovedIngredientDiscount is the per-ingredient discount in
// currency units for every removed base ingredient.
var DefaultRemovedIngredientDiscount = decimal.NewFromInt(10)

var two = decimal.NewFromInt(2)

// AppliedExtra is one priced topping line of a breakdown.
type AppliedExtra struct {
	ExtraID    int
	Name       string
	Amount     decimal.Decimal
	HalfPriced bool
}

// HalfBreakdown details one side of a half-and-half pizza.
type HalfBreakdown struct {
	PizzaID     int
	PizzaName   string
	BaseShare   decimal.Decimal
	ExtrasShare decimal.Decimal
	Removed     []string
}

// PriceBreakdown is the full result of pricing one order item.
// Base, ExtrasCost, Total and the per-extra amounts are scaled by
// quantity; the removal discount is applied once per line.
type PriceBreakdown struct {
	PizzaID    int
	PizzaName  string
	Quantity   int
	Base       decimal.Decimal
	ExtrasCost decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	Extras     []AppliedExtra
	Halves     []HalfBreakdown
}

// IsHalfAndHalf reports whether the breakdown covers two halves.
func (b *PriceBreakdown) IsHalfAndHalf() bool {
	return len(b.Halves) == 2
}

// OrderSummary aggregates per-item breakdowns for a whole order.
type OrderSummary struct {
	ItemCount int
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	Items     []PriceBreakdown
}

// Service is the pricing engine. Computation itself is pure; the menu
// repository only resolves pizza and extra references up front.
type Service struct {
	menu            interfaces.MenuRepository
	removedDiscount decimal.Decimal
}

// NewService builds the pricing engine. A zero removedDiscount means
// unset; DefaultRemovedIngredientDiscount applies. The discount cannot
// be configured to exactly zero.
func NewService(menu interfaces.MenuRepository, removedDiscount decimal.Decimal) *Service {
	if removedDiscount.IsZero() {
		removedDiscount = DefaultRemovedIngredientDiscount
	}
	return &Service{menu: menu, removedDiscount: removedDiscount}
}

// ComputeItemPrice prices one order item, whole or half-and-half.
func (s *Service) ComputeItemPrice(ctx context.Context, cmd interfaces.OrderItemCommand) (*PriceBreakdown, error) {
	if cmd.Quantity < 1 {
		return nil, &domain.ValidationError{Field: "quantity", Message: "quantity must be at least 1"}
	}

	pizza, err := s.menu.GetPizza(ctx, cmd.PizzaID)
	if err != nil {
		return nil, err
	}

	if cmd.SecondHalf == nil {
		return s.computeWhole(ctx, pizza, cmd)
	}

	second, err := s.menu.GetPizza(ctx, cmd.SecondHalf.PizzaID)
	if err != nil {
		return nil, err
	}
	return s.computeHalves(ctx, pizza, second, cmd)
}

func (s *Service) computeWhole(ctx context.Context, pizza *domain.Pizza, cmd interfaces.OrderItemCommand) (*PriceBreakdown, error) {
	extras, err := s.ValidateExtras(ctx, cmd.ExtraIDs)
	if err != nil {
		return nil, err
	}

	base := pizza.BasePrice
	extrasCost := decimal.Zero
	applied := make([]AppliedExtra, 0, len(extras))
	for _, e := range extras {
		extrasCost = extrasCost.Add(e.Price)
		applied = append(applied, AppliedExtra{ExtraID: e.ID, Name: e.Name, Amount: e.Price})
	}

	discount := s.removedDiscount.Mul(decimal.NewFromInt(int64(len(cmd.RemovedIngredients))))

	breakdown := &PriceBreakdown{
		PizzaID:    pizza.ID,
		PizzaName:  pizza.Name,
		Quantity:   cmd.Quantity,
		Base:       base,
		ExtrasCost: extrasCost,
		Discount:   discount,
		Extras:     applied,
	}
	scaleAndTotal(breakdown, cmd.Quantity)
	return breakdown, nil
}

func (s *Service) computeHalves(ctx context.Context, first, second *domain.Pizza, cmd interfaces.OrderItemCommand) (*PriceBreakdown, error) {
	firstIDs := cmd.ExtraIDs
	secondIDs := cmd.SecondHalf.ExtraIDs

	// A single validation pass over the union keeps the error listing
	// every unresolved id across both halves.
	extras, err := s.ValidateExtras(ctx, append(append([]int{}, firstIDs...), secondIDs...))
	if err != nil {
		return nil, err
	}
	byID := make(map[int]domain.Extra, len(extras))
	for _, e := range extras {
		byID[e.ID] = e
	}

	inFirst := membership(firstIDs)
	inSecond := membership(secondIDs)

	base := first.BasePrice.Add(second.BasePrice).Div(two)

	// Partition the union: an extra on both halves contributes its full
	// price once, an extra on one half contributes half its price.
	extrasCost := decimal.Zero
	applied := make([]AppliedExtra, 0, len(byID))
	firstShare := decimal.Zero
	secondShare := decimal.Zero
	for _, id := range unionOrdered(firstIDs, secondIDs) {
		e := byID[id]
		half := e.Price.Div(two)
		switch {
		case inFirst[id] && inSecond[id]:
			extrasCost = extrasCost.Add(e.Price)
			applied = append(applied, AppliedExtra{ExtraID: e.ID, Name: e.Name, Amount: e.Price})
			firstShare = firstShare.Add(half)
			secondShare = secondShare.Add(half)
		case inFirst[id]:
			extrasCost = extrasCost.Add(half)
			applied = append(applied, AppliedExtra{ExtraID: e.ID, Name: e.Name, Amount: half, HalfPriced: true})
			firstShare = firstShare.Add(half)
		default:
			extrasCost = extrasCost.Add(half)
			applied = append(applied, AppliedExtra{ExtraID: e.ID, Name: e.Name, Amount: half, HalfPriced: true})
			secondShare = secondShare.Add(half)
		}
	}

	// Each side's removal discount is computed with the same constant,
	// then the sum is halved.
	firstDiscount := s.removedDiscount.Mul(decimal.NewFromInt(int64(len(cmd.RemovedIngredients))))
	secondDiscount := s.removedDiscount.Mul(decimal.NewFromInt(int64(len(cmd.SecondHalf.RemovedIngredients))))
	discount := firstDiscount.Add(secondDiscount).Div(two)

	breakdown := &PriceBreakdown{
		PizzaID:    first.ID,
		PizzaName:  first.Name,
		Quantity:   cmd.Quantity,
		Base:       base,
		ExtrasCost: extrasCost,
		Discount:   discount,
		Extras:     applied,
		Halves: []HalfBreakdown{
			{
				PizzaID:     first.ID,
				PizzaName:   first.Name,
				BaseShare:   first.BasePrice.Div(two),
				ExtrasShare: firstShare,
				Removed:     cmd.RemovedIngredients,
			},
			{
				PizzaID:     second.ID,
				PizzaName:   second.Name,
				BaseShare:   second.BasePrice.Div(two),
				ExtrasShare: secondShare,
				Removed:     cmd.SecondHalf.RemovedIngredients,
			},
		},
	}
	scaleAndTotal(breakdown, cmd.Quantity)
	return breakdown, nil
}

// scaleAndTotal applies the quantity multiplier to base, extras cost
// and every applied-extra amount, then computes the clamped total.
// The removal discount is deliberately not rescaled by quantity.
func scaleAndTotal(b *PriceBreakdown, quantity int) {
	if quantity > 1 {
		q := decimal.NewFromInt(int64(quantity))
		b.Base = b.Base.Mul(q)
		b.ExtrasCost = b.ExtrasCost.Mul(q)
		for i := range b.Extras {
			b.Extras[i].Amount = b.Extras[i].Amount.Mul(q)
		}
		for i := range b.Halves {
			b.Halves[i].BaseShare = b.Halves[i].BaseShare.Mul(q)
			b.Halves[i].ExtrasShare = b.Halves[i].ExtrasShare.Mul(q)
		}
	}

	// Clamping happens only here, never on intermediate sub-totals.
	total := b.Base.Add(b.ExtrasCost).Sub(b.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	b.Total = total
}

// ComputeOrderSummary prices every item and applies an order-level
// discount capped at the subtotal.
func (s *Service) ComputeOrderSummary(ctx context.Context, items []interfaces.OrderItemCommand, discountAmount decimal.Decimal) (*OrderSummary, error) {
	summary := &OrderSummary{
		ItemCount: len(items),
		Subtotal:  decimal.Zero,
		Items:     make([]PriceBreakdown, 0, len(items)),
	}

	for i, item := range items {
		breakdown, err := s.ComputeItemPrice(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		summary.Items = append(summary.Items, *breakdown)
		summary.Subtotal = summary.Subtotal.Add(breakdown.Total)
	}

	discount := discountAmount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(summary.Subtotal) {
		discount = summary.Subtotal
	}
	summary.Discount = discount
	summary.Total = summary.Subtotal.Sub(discount)

	return summary, nil
}

// ValidateExtras resolves ids against active extras and fails with a
// business error naming every id that did not resolve.
func (s *Service) ValidateExtras(ctx context.Context, ids []int) ([]domain.Extra, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil, nil
	}

	extras, err := s.menu.GetExtras(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(extras) == len(unique) {
		return extras, nil
	}

	resolved := make(map[int]bool, len(extras))
	for _, e := range extras {
		resolved[e.ID] = true
	}
	var missing []string
	for _, id := range unique {
		if !resolved[id] {
			missing = append(missing, fmt.Sprintf("%d", id))
		}
	}

	return nil, &domain.BusinessError{
		Code:    "extras_no_resueltos",
		Message: "extras not found or inactive",
		Details: missing,
	}
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func membership(ids []int) map[int]bool {
	m := make(map[int]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// unionOrdered returns the distinct union of both lists, first-half
// ids first, preserving arrival order within each list.
func unionOrdered(first, second []int) []int {
	return dedupe(append(append([]int{}, first...), second...))
}
