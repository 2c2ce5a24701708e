package repositories

import (
	"context"
	"time"

	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MilestoneRepo struct {
	pool *pgxpool.Pool
}

func NewMilestoneRepo(pool *pgxpool.Pool) *MilestoneRepo {
	return &MilestoneRepo{pool: pool}
}

func (r *MilestoneRepo) Create(ctx context.Context, m *models.Milestone) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO milestones (contract_id, title, description, amount, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, m.ContractID, m.Title, m.Description, m.Amount, m.Status, m.DueDate).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MilestoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	var m models.Milestone
	err := r.pool.QueryRow(ctx, `
		SELECT id, contract_id, title, description, amount, status, due_date, completed_at, created_at, updated_at
		FROM milestones WHERE id = $1
	`, id).Scan(&m.ID, &m.ContractID, &m.Title, &m.Description, &m.Amount, &m.Status,
		&m.DueDate, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MilestoneRepo) ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Milestone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contract_id, title, description, amount, status, due_date, completed_at, created_at, updated_at
		FROM milestones WHERE contract_id = $1
		ORDER BY created_at ASC
	`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Milestone
	for rows.Next() {
		var m models.Milestone
		if err := rows.Scan(&m.ID, &m.ContractID, &m.Title, &m.Description, &m.Amount, &m.Status,
			&m.DueDate, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateStatus performs a guarded transition: the row is only touched when
// it is still in the expected state, so concurrent updates and sweep
// re-runs cannot double-apply.
func (r *MilestoneRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	var tagQuery string
	if to == models.MilestoneStatusCompleted {
		tagQuery = `UPDATE milestones SET status = $1, completed_at = now(), updated_at = now() WHERE id = $2 AND status = $3`
	} else {
		tagQuery = `UPDATE milestones SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`
	}
	tag, err := r.pool.Exec(ctx, tagQuery, to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountByContract returns (total, completed) for completion percentage.
func (r *MilestoneRepo) CountByContract(ctx context.Context, contractID uuid.UUID) (int, int, error) {
	var total, completed int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $2)
		FROM milestones WHERE contract_id = $1
	`, contractID, models.MilestoneStatusCompleted).Scan(&total, &completed)
	return total, completed, err
}

// ListOverdue returns milestones whose due date has passed while still
// pending or in progress. Fed to the hourly overdue sweep.
func (r *MilestoneRepo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Milestone, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, contract_id, title, description, amount, status, due_date, completed_at, created_at, updated_at
		FROM milestones
		WHERE due_date IS NOT NULL AND due_date < $1 AND status IN ($2, $3)
		LIMIT $4
	`, now, models.MilestoneStatusPending, models.MilestoneStatusInProgress, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Milestone
	for rows.Next() {
		var m models.Milestone
		if err := rows.Scan(&m.ID, &m.ContractID, &m.Title, &m.Description, &m.Amount, &m.Status,
			&m.DueDate, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
