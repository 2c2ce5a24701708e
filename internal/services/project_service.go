package services

import (
	"context"
	"errors"
	"time"

	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/freelance-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type projectStore interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, f repositories.ProjectFilter) ([]models.ProjectWithClient, error)
}

type ProjectService struct {
	projects  projectStore
	auditRepo auditLogger
	log       *zap.Logger
}

func NewProjectService(projects projectStore, auditRepo auditLogger, log *zap.Logger) *ProjectService {
	return &ProjectService{projects: projects, auditRepo: auditRepo, log: log}
}

type CreateProjectInput struct {
	Title       string
	Description *string
	Budget      decimal.Decimal
	Deadline    *time.Time
}

// Create opens a project for bidding.
func (s *ProjectService) Create(ctx context.Context, clientID uuid.UUID, in CreateProjectInput) (*models.Project, error) {
	if in.Title == "" || in.Budget.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	p := &models.Project{
		ClientID:    clientID,
		Title:       in.Title,
		Description: in.Description,
		Budget:      in.Budget,
		Status:      models.ProjectStatusOpen,
		Deadline:    in.Deadline,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   models.ActorUser,
		Action:      "project_create",
		EntityType:  "project",
		EntityID:    &p.ID,
		Meta:        map[string]any{"title": p.Title, "budget": p.Budget.String()},
	})

	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) List(ctx context.Context, f repositories.ProjectFilter) ([]models.ProjectWithClient, error) {
	return s.projects.List(ctx, f)
}

// Cancel withdraws an open project. Only its client may cancel, and only
// before a bid has been accepted.
func (s *ProjectService) Cancel(ctx context.Context, clientID, projectID uuid.UUID) error {
	p, err := s.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if p.ClientID != clientID {
		return ErrNotAuthorized
	}
	if !models.IsValidProjectTransition(p.Status, models.ProjectStatusCancelled) {
		return ErrProjectNotOpen
	}
	if err := s.projects.UpdateStatus(ctx, projectID, models.ProjectStatusCancelled); err != nil {
		return err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   models.ActorUser,
		Action:      "project_cancel",
		EntityType:  "project",
		EntityID:    &projectID,
	})
	return nil
}
