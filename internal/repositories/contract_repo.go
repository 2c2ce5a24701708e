package repositories

import (
	"context"

	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContractRepo struct {
	pool *pgxpool.Pool
}

func NewContractRepo(pool *pgxpool.Pool) *ContractRepo {
	return &ContractRepo{pool: pool}
}

func (r *ContractRepo) Create(ctx context.Context, c *models.Contract) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO contracts (project_id, bid_id, client_id, freelancer_id, amount, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, started_at, created_at, updated_at
	`, c.ProjectID, c.BidID, c.ClientID, c.FreelancerID, c.Amount, c.Status).Scan(&c.ID, &c.StartedAt, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ContractRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var c models.Contract
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, bid_id, client_id, freelancer_id, amount, status,
		       started_at, completed_at, created_at, updated_at
		FROM contracts WHERE id = $1
	`, id).Scan(&c.ID, &c.ProjectID, &c.BidID, &c.ClientID, &c.FreelancerID, &c.Amount, &c.Status,
		&c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContractRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ContractWithProject, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.project_id, c.bid_id, c.client_id, c.freelancer_id, c.amount, c.status,
		       c.started_at, c.completed_at, c.created_at, c.updated_at, p.title
		FROM contracts c
		JOIN projects p ON p.id = c.project_id
		WHERE c.client_id = $1 OR c.freelancer_id = $1
		ORDER BY c.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []models.ContractWithProject
	for rows.Next() {
		var c models.ContractWithProject
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.BidID, &c.ClientID, &c.FreelancerID, &c.Amount,
			&c.Status, &c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt, &c.ProjectTitle); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func (r *ContractRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if status == models.ContractStatusCompleted {
		_, err := r.pool.Exec(ctx, `
			UPDATE contracts SET status = $1, completed_at = now(), updated_at = now() WHERE id = $2
		`, status, id)
		return err
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE contracts SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	return err
}
