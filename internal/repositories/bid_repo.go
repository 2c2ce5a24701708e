package repositories

import (
	"context"

	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BidRepo struct {
	pool *pgxpool.Pool
}

func NewBidRepo(pool *pgxpool.Pool) *BidRepo {
	return &BidRepo{pool: pool}
}

func (r *BidRepo) Create(ctx context.Context, b *models.Bid) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO bids (project_id, freelancer_id, amount, proposal, delivery_days, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, b.ProjectID, b.FreelancerID, b.Amount, b.Proposal, b.DeliveryDays, b.Status).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BidRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	var b models.Bid
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, freelancer_id, amount, proposal, delivery_days, status, created_at, updated_at
		FROM bids WHERE id = $1
	`, id).Scan(&b.ID, &b.ProjectID, &b.FreelancerID, &b.Amount, &b.Proposal, &b.DeliveryDays, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BidRepo) GetByProjectAndFreelancer(ctx context.Context, projectID, freelancerID uuid.UUID) (*models.Bid, error) {
	var b models.Bid
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, freelancer_id, amount, proposal, delivery_days, status, created_at, updated_at
		FROM bids WHERE project_id = $1 AND freelancer_id = $2
	`, projectID, freelancerID).Scan(&b.ID, &b.ProjectID, &b.FreelancerID, &b.Amount, &b.Proposal, &b.DeliveryDays, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BidRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.BidWithFreelancer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.project_id, b.freelancer_id, b.amount, b.proposal, b.delivery_days,
		       b.status, b.created_at, b.updated_at, u.name
		FROM bids b
		JOIN users u ON u.id = b.freelancer_id
		WHERE b.project_id = $1
		ORDER BY b.created_at ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []models.BidWithFreelancer
	for rows.Next() {
		var b models.BidWithFreelancer
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.FreelancerID, &b.Amount, &b.Proposal,
			&b.DeliveryDays, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.FreelancerName); err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func (r *BidRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bids SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	return err
}

// RejectSiblings marks every other pending bid on the project as rejected
// and returns their ids so negotiation rooms can be closed.
func (r *BidRepo) RejectSiblings(ctx context.Context, projectID, acceptedBidID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE bids SET status = $1, updated_at = now()
		WHERE project_id = $2 AND id <> $3 AND status = $4
		RETURNING id
	`, models.BidStatusRejected, projectID, acceptedBidID, models.BidStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
