package repositories

import (
	"context"

	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Insert appends a log entry inside the caller's transaction. Entries are
// never updated or deleted afterwards.
func (r *TransactionRepo) Insert(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO transactions (user_id, role, type, amount, balance_before, balance_after,
		                          project_id, external_payment_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, t.UserID, t.Role, t.Type, t.Amount, t.BalanceBefore, t.BalanceAfter,
		t.ProjectID, t.ExternalPaymentID, t.Description).Scan(&t.ID, &t.CreatedAt)
}

// ExternalPaymentExists reports whether a deposit with this gateway payment
// id was already processed. Checked inside the deposit transaction; the
// unique index on external_payment_id backstops the race.
func (r *TransactionRepo) ExternalPaymentExists(ctx context.Context, tx pgx.Tx, externalPaymentID string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM transactions WHERE external_payment_id = $1)
	`, externalPaymentID).Scan(&exists)
	return exists, err
}

func (r *TransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, role string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, role, type, amount, balance_before, balance_after,
		       project_id, external_payment_id, description, created_at
		FROM transactions
		WHERE user_id = $1 AND role = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, userID, role, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Role, &t.Type, &t.Amount, &t.BalanceBefore,
			&t.BalanceAfter, &t.ProjectID, &t.ExternalPaymentID, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// EarningsTotal sums release credits received by a freelancer.
func (r *TransactionRepo) EarningsTotal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND role = $2 AND type = $3 AND project_id IS NOT NULL
	`, userID, models.RoleFreelancer, models.TxTypeCredit).Scan(&total)
	return total, err
}

// MonthlyEarnings breaks freelancer credits down per calendar month.
func (r *TransactionRepo) MonthlyEarnings(ctx context.Context, userID uuid.UUID, months int) ([]models.MonthlyEarnings, error) {
	if months <= 0 {
		months = 12
	}
	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM created_at)::int, EXTRACT(MONTH FROM created_at)::int, SUM(amount)
		FROM transactions
		WHERE user_id = $1 AND role = $2 AND type = $3 AND project_id IS NOT NULL
		  AND created_at > now() - make_interval(months => $4)
		GROUP BY 1, 2
		ORDER BY 1 DESC, 2 DESC
	`, userID, models.RoleFreelancer, models.TxTypeCredit, months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MonthlyEarnings
	for rows.Next() {
		var m models.MonthlyEarnings
		if err := rows.Scan(&m.Year, &m.Month, &m.Total); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
