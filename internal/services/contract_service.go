package services

import (
	"context"
	"errors"

	"github.com/freelance-marketplace/backend/internal/events"
	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type milestoneCounter interface {
	CountByContract(ctx context.Context, contractID uuid.UUID) (int, int, error)
}

// escrowReleaser is the slice of WalletService contract completion needs.
type escrowReleaser interface {
	Release(ctx context.Context, clientID, freelancerID, projectID uuid.UUID, amount decimal.Decimal) error
}

type contractRooms interface {
	CompleteContractRoom(ctx context.Context, contractID uuid.UUID) error
}

// ContractService closes out contracts. Completion requires every
// milestone done, then pays the freelancer from escrow.
type ContractService struct {
	contracts  contractStore
	projects   projectStore
	milestones milestoneCounter
	escrow     escrowReleaser
	chat       contractRooms
	publisher  events.Publisher
	auditRepo  auditLogger
	log        *zap.Logger
}

func NewContractService(
	contracts contractStore,
	projects projectStore,
	milestones milestoneCounter,
	escrow escrowReleaser,
	chat contractRooms,
	publisher events.Publisher,
	auditRepo auditLogger,
	log *zap.Logger,
) *ContractService {
	return &ContractService{
		contracts:  contracts,
		projects:   projects,
		milestones: milestones,
		escrow:     escrow,
		chat:       chat,
		publisher:  publisher,
		auditRepo:  auditRepo,
		log:        log,
	}
}

// Get returns a contract to one of its participants.
func (s *ContractService) Get(ctx context.Context, userID, contractID uuid.UUID) (*models.Contract, error) {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}
	if c.ClientID != userID && c.FreelancerID != userID {
		return nil, ErrNotAuthorized
	}
	return c, nil
}

func (s *ContractService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ContractWithProject, error) {
	return s.contracts.ListForUser(ctx, userID, limit, offset)
}

// Complete finishes an active contract: every milestone must be done,
// then escrow pays out, statuses move and the chat room follows.
func (s *ContractService) Complete(ctx context.Context, clientID, contractID uuid.UUID) (*models.Contract, error) {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}
	if c.ClientID != clientID {
		return nil, ErrNotAuthorized
	}
	if c.Status != models.ContractStatusActive {
		return nil, ErrContractNotActive
	}

	total, completed, err := s.milestones.CountByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if total > 0 && completed < total {
		return nil, ErrMilestonesIncomplete
	}

	// Pay the freelancer before any status moves; a failed release
	// leaves the contract active and retryable.
	if err := s.escrow.Release(ctx, c.ClientID, c.FreelancerID, c.ProjectID, c.Amount); err != nil {
		return nil, err
	}

	if err := s.contracts.UpdateStatus(ctx, c.ID, models.ContractStatusCompleted); err != nil {
		return nil, err
	}
	if err := s.projects.UpdateStatus(ctx, c.ProjectID, models.ProjectStatusCompleted); err != nil {
		s.log.Error("complete project", zap.Error(err), zap.String("project_id", c.ProjectID.String()))
	}

	if err := s.chat.CompleteContractRoom(ctx, c.ID); err != nil {
		s.log.Warn("complete contract room", zap.Error(err), zap.String("contract_id", c.ID.String()))
	}

	_ = s.publisher.Publish(ctx, events.StreamChat, events.Event{
		Type: events.EventContractStatusChanged,
		Payload: map[string]any{
			"contract_id": c.ID.String(),
			"status":      models.ContractStatusCompleted,
		},
	})

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   models.ActorUser,
		Action:      "contract_complete",
		EntityType:  "contract",
		EntityID:    &c.ID,
		Meta:        map[string]any{"amount": c.Amount.String()},
	})

	return s.contracts.GetByID(ctx, c.ID)
}
