package postgres

import (
	"context"

	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
)

type customerStats struct {
	db DB
}

// NewCustomerStatsRefresher recomputes a customer's aggregate order
// count and spend from delivered orders.
func NewCustomerStatsRefresher(db DB) interfaces.CustomerStatsRefresher {
	return &customerStats{db: db}
}

func (s *customerStats) Refresh(ctx context.Context, customerID int) error {
	query := `
		UPDATE customers SET
			order_count = (
				SELECT COUNT(*) FROM orders
				WHERE customer_id = $1 AND status = $2
			),
			total_spent = (
				SELECT COALESCE(SUM(total), 0) FROM orders
				WHERE customer_id = $1 AND status = $2
			)
		WHERE id = $1
	`
	if _, err := s.db.Exec(ctx, query, customerID, domain.StatusEntregado); err != nil {
		return &domain.DatabaseError{Op: "refresh customer stats", Err: err}
	}
	return nil
}
