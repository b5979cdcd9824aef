package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
	"github.com/jackc/pgx/v5"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return &domain.DatabaseError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (customer_id, customer_name, customer_phone, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		order.CustomerID, order.CustomerName, order.CustomerPhone,
		order.Status, order.Total, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return &domain.DatabaseError{Op: "insert order", Err: err}
	}

	if err := insertItems(ctx, tx, order); err != nil {
		return err
	}

	// First history record: creation into the initial status.
	rec := domain.StatusHistoryRecord{
		OrderID:   order.ID,
		To:        order.Status,
		Actor:     "order-service",
		ChangedAt: order.CreatedAt,
	}
	if err := insertHistory(ctx, tx, &rec); err != nil {
		return err
	}
	order.History = append(order.History, rec)

	if err := tx.Commit(ctx); err != nil {
		return &domain.DatabaseError{Op: "commit order create", Err: err}
	}
	return nil
}

func insertItems(ctx context.Context, tx Tx, order *domain.Order) error {
	query := `
		INSERT INTO order_items (order_id, pizza_id, pizza_name, quantity, extra_ids, removed_ingredients,
		                         half_pizza_id, half_pizza_name, half_extra_ids, half_removed_ingredients,
		                         note, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	for i := range order.Items {
		item := &order.Items[i]
		var halfID *int
		var halfName *string
		var halfExtras []int
		var halfRemoved []string
		if item.SecondHalf != nil {
			halfID = &item.SecondHalf.PizzaID
			halfName = &item.SecondHalf.PizzaName
			halfExtras = item.SecondHalf.ExtraIDs
			halfRemoved = item.SecondHalf.RemovedIngredients
		}

		err := tx.QueryRow(ctx, query,
			order.ID, item.PizzaID, item.PizzaName, item.Quantity, item.ExtraIDs, item.RemovedIngredients,
			halfID, halfName, halfExtras, halfRemoved, item.Note, item.Price,
		).Scan(&item.ID)
		if err != nil {
			return &domain.DatabaseError{Op: "insert order item", Err: err}
		}
		item.OrderID = order.ID
	}
	return nil
}

func insertHistory(ctx context.Context, tx Tx, rec *domain.StatusHistoryRecord) error {
	query := `
		INSERT INTO order_status_log (order_id, from_status, to_status, reason, actor, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := tx.QueryRow(ctx, query,
		rec.OrderID, rec.From, rec.To, rec.Reason, rec.Actor, rec.ChangedAt,
	).Scan(&rec.ID)
	if err != nil {
		return &domain.DatabaseError{Op: "insert status log", Err: err}
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int) (*domain.Order, error) {
	query := `
		SELECT id, customer_id, customer_name, customer_phone, status, total, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	var order domain.Order
	err := r.db.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.CustomerID, &order.CustomerName, &order.CustomerPhone,
		&order.Status, &order.Total, &order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return nil, &domain.DatabaseError{Op: "select order", Err: err}
	}

	items, err := r.loadItems(ctx, []int{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return &order, nil
}

func (r *orderRepository) ListActive(ctx context.Context) ([]*domain.Order, error) {
	query := `
		SELECT id, customer_id, customer_name, customer_phone, status, total, created_at, updated_at
		FROM orders
		WHERE status = ANY($1)
		ORDER BY id
	`
	trackable := []string{
		string(domain.StatusNuevo),
		string(domain.StatusEnPreparacion),
		string(domain.StatusListo),
	}

	rows, err := r.db.Query(ctx, query, trackable)
	if err != nil {
		return nil, &domain.DatabaseError{Op: "select active orders", Err: err}
	}
	defer rows.Close()

	var orders []*domain.Order
	var ids []int
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID, &order.CustomerID, &order.CustomerName, &order.CustomerPhone,
			&order.Status, &order.Total, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, &domain.DatabaseError{Op: "scan order", Err: err}
		}
		orders = append(orders, &order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.DatabaseError{Op: "iterate orders", Err: err}
	}

	if len(ids) > 0 {
		items, err := r.loadItems(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, order := range orders {
			order.Items = items[order.ID]
		}
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderIDs []int) (map[int][]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, pizza_id, pizza_name, quantity, extra_ids, removed_ingredients,
		       half_pizza_id, half_pizza_name, half_extra_ids, half_removed_ingredients, note, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, &domain.DatabaseError{Op: "select order items", Err: err}
	}
	defer rows.Close()

	result := make(map[int][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		var halfID *int
		var halfName *string
		var halfExtras []int
		var halfRemoved []string

		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.PizzaID, &item.PizzaName, &item.Quantity,
			&item.ExtraIDs, &item.RemovedIngredients,
			&halfID, &halfName, &halfExtras, &halfRemoved, &item.Note, &item.Price,
		); err != nil {
			return nil, &domain.DatabaseError{Op: "scan order item", Err: err}
		}

		if halfID != nil {
			item.SecondHalf = &domain.HalfSpec{
				PizzaID:            *halfID,
				ExtraIDs:           halfExtras,
				RemovedIngredients: halfRemoved,
			}
			if halfName != nil {
				item.SecondHalf.PizzaName = *halfName
			}
		}

		result[item.OrderID] = append(result[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.DatabaseError{Op: "iterate order items", Err: err}
	}

	return result, nil
}

func (r *orderRepository) UpdateItems(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return &domain.DatabaseError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return &domain.DatabaseError{Op: "delete order items", Err: err}
	}
	if err := insertItems(ctx, tx, order); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE orders SET total = $1, updated_at = $2 WHERE id = $3`,
		order.Total, order.UpdatedAt, order.ID,
	); err != nil {
		return &domain.DatabaseError{Op: "update order total", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &domain.DatabaseError{Op: "commit items update", Err: err}
	}
	return nil
}

// UpdateStatus is the atomic transition primitive: the status write is
// conditional on the expected current status, and the history record
// lands in the same transaction. A lost race surfaces as a conflict
// with no history appended.
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int, expected domain.Status, rec *domain.StatusHistoryRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return &domain.DatabaseError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		rec.To, rec.ChangedAt, orderID, expected,
	)
	if err != nil {
		return &domain.DatabaseError{Op: "update order status", Err: err}
	}
	if tag.RowsAffected() == 0 {
		var current domain.Status
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.NotFoundError{Entity: "order", ID: orderID}
		}
		if err != nil {
			return &domain.DatabaseError{Op: "select order status", Err: err}
		}
		return &domain.ConflictError{
			Message: fmt.Sprintf("order %d moved from %s to %s before the transition applied", orderID, expected, current),
		}
	}

	if err := insertHistory(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return &domain.DatabaseError{Op: "commit status update", Err: err}
	}
	return nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusHistoryRecord, error) {
	query := `
		SELECT id, order_id, from_status, to_status, reason, actor, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, &domain.DatabaseError{Op: "select status history", Err: err}
	}
	defer rows.Close()

	var records []*domain.StatusHistoryRecord
	for rows.Next() {
		var rec domain.StatusHistoryRecord
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.From, &rec.To, &rec.Reason, &rec.Actor, &rec.ChangedAt); err != nil {
			return nil, &domain.DatabaseError{Op: "scan status log", Err: err}
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.DatabaseError{Op: "iterate status history", Err: err}
	}

	return records, nil
}
