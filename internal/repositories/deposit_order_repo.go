package repositories

import (
	"context"

	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DepositOrderRepo struct {
	pool *pgxpool.Pool
}

func NewDepositOrderRepo(pool *pgxpool.Pool) *DepositOrderRepo {
	return &DepositOrderRepo{pool: pool}
}

func (r *DepositOrderRepo) Insert(ctx context.Context, o *models.DepositOrder) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO deposit_orders (order_id, user_id, role, amount, currency, receipt, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, o.OrderID, o.UserID, o.Role, o.Amount, o.Currency, o.Receipt, o.Status).Scan(&o.ID, &o.CreatedAt)
}

func (r *DepositOrderRepo) GetByOrderID(ctx context.Context, orderID string) (*models.DepositOrder, error) {
	var o models.DepositOrder
	err := r.pool.QueryRow(ctx, `
		SELECT id, order_id, user_id, role, amount, currency, receipt, status, created_at, paid_at
		FROM deposit_orders WHERE order_id = $1
	`, orderID).Scan(&o.ID, &o.OrderID, &o.UserID, &o.Role, &o.Amount, &o.Currency,
		&o.Receipt, &o.Status, &o.CreatedAt, &o.PaidAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// MarkPaid flips a created order to paid. Returns false when the order was
// already paid, so a replayed confirmation cannot credit twice.
func (r *DepositOrderRepo) MarkPaid(ctx context.Context, orderID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE deposit_orders SET status = $1, paid_at = now()
		WHERE order_id = $2 AND status = $3
	`, models.DepositOrderPaid, orderID, models.DepositOrderCreated)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
