package postgres

import (
	"context"
	"errors"

	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
	"github.com/jackc/pgx/v5"
)

type menuRepository struct {
	db DB
}

func NewMenuRepository(db DB) interfaces.MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) GetPizza(ctx context.Context, id int) (*domain.Pizza, error) {
	query := `SELECT id, name, base_price, ingredients FROM pizzas WHERE id = $1`

	var pizza domain.Pizza
	err := r.db.QueryRow(ctx, query, id).Scan(&pizza.ID, &pizza.Name, &pizza.BasePrice, &pizza.Ingredients)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "pizza", ID: id}
	}
	if err != nil {
		return nil, &domain.DatabaseError{Op: "select pizza", Err: err}
	}
	return &pizza, nil
}

// GetExtras returns the active extras among ids, silently omitting
// unknown and inactive ones. The pricing engine reconciles counts.
func (r *menuRepository) GetExtras(ctx context.Context, ids []int) ([]domain.Extra, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, name, price, category, active
		FROM extras
		WHERE id = ANY($1) AND active
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, &domain.DatabaseError{Op: "select extras", Err: err}
	}
	return collectExtras(rows)
}

// ListActiveExtras returns every active extra in id order; display
// grouping by category happens in the domain.
func (r *menuRepository) ListActiveExtras(ctx context.Context) ([]domain.Extra, error) {
	query := `
		SELECT id, name, price, category, active
		FROM extras
		WHERE active
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, &domain.DatabaseError{Op: "select active extras", Err: err}
	}
	return collectExtras(rows)
}

func collectExtras(rows Rows) ([]domain.Extra, error) {
	defer rows.Close()

	var extras []domain.Extra
	for rows.Next() {
		var e domain.Extra
		if err := rows.Scan(&e.ID, &e.Name, &e.Price, &e.Category, &e.Active); err != nil {
			return nil, &domain.DatabaseError{Op: "scan extra", Err: err}
		}
		extras = append(extras, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.DatabaseError{Op: "iterate extras", Err: err}
	}

	return extras, nil
}
