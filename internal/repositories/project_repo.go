package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO projects (client_id, title, description, budget, status, deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, p.ClientID, p.Title, p.Description, p.Budget, p.Status, p.Deadline).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, client_id, title, description, budget, status, deadline, created_at, updated_at
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.ClientID, &p.Title, &p.Description, &p.Budget, &p.Status, &p.Deadline, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE projects SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	return err
}

type ProjectFilter struct {
	ClientID *uuid.UUID
	Status   *string
	Limit    int
	Offset   int
}

func (r *ProjectRepo) List(ctx context.Context, f ProjectFilter) ([]models.ProjectWithClient, error) {
	query := `
		SELECT p.id, p.client_id, p.title, p.description, p.budget, p.status, p.deadline,
		       p.created_at, p.updated_at, u.name
		FROM projects p
		JOIN users u ON u.id = p.client_id
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.ClientID != nil {
		where = append(where, fmt.Sprintf("p.client_id = $%d", argIdx))
		args = append(args, *f.ClientID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("p.status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	query += fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.ProjectWithClient
	for rows.Next() {
		var p models.ProjectWithClient
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Title, &p.Description, &p.Budget, &p.Status,
			&p.Deadline, &p.CreatedAt, &p.UpdatedAt, &p.ClientName); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
