package domain

import "github.com/shopspring/decimal"

// Pizza is a menu pizza. The ingredient list is the base recipe;
// removed-ingredient discounts are validated against it upstream.
type Pizza struct {
	ID          int
	Name        string
	BasePrice   decimal.Decimal
	Ingredients []string
}

// ExtraCategory classifies paid toppings. The set is closed and
// declared here, never inferred from data.
type ExtraCategory string

const (
	CategoryQueso    ExtraCategory = "queso"
	CategoryCarne    ExtraCategory = "carne"
	CategoryVegetal  ExtraCategory = "vegetal"
	CategorySalsa    ExtraCategory = "salsa"
	CategoryEspecial ExtraCategory = "especial"
)

// ExtraCategories returns every category in menu display order.
func ExtraCategories() []ExtraCategory {
	return []ExtraCategory{CategoryQueso, CategoryCarne, CategoryVegetal, CategorySalsa, CategoryEspecial}
}

// Extra is an optional paid topping.
type Extra struct {
	ID       int
	Name     string
	Price    decimal.Decimal
	Category ExtraCategory
	Active   bool
}

// CategoryGroup is an ordered bucket of extras under one category.
type CategoryGroup struct {
	Category ExtraCategory
	Extras   []Extra
}

// GroupExtrasByCategory buckets extras by category, keeping the
// declared category order and the input order within each bucket.
func GroupExtrasByCategory(extras []Extra) []CategoryGroup {
	byCategory := make(map[ExtraCategory][]Extra, len(extras))
	for _, e := range extras {
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}

	groups := make([]CategoryGroup, 0, len(byCategory))
	for _, c := range ExtraCategories() {
		if list, ok := byCategory[c]; ok {
			groups = append(groups, CategoryGroup{Category: c, Extras: list})
		}
	}
	return groups
}
