package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freelance-marketplace/backend/internal/events"
	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type milestoneStore interface {
	Create(ctx context.Context, m *models.Milestone) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Milestone, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	CountByContract(ctx context.Context, contractID uuid.UUID) (int, int, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Milestone, error)
}

type contractGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
}

// chatNotifier posts system messages into contract rooms. Failures are
// logged and never roll back milestone work.
type chatNotifier interface {
	NotifyContractRoom(ctx context.Context, contractID uuid.UUID, messageType, content string) error
}

// MilestoneService manages per-contract milestones. Transitions are
// forward only and enforced by a guarded update, so a finished milestone
// can never revert and concurrent updates resolve to one winner.
type MilestoneService struct {
	milestones milestoneStore
	contracts  contractGetter
	chat       chatNotifier
	publisher  events.Publisher
	auditRepo  auditLogger
	log        *zap.Logger
}

func NewMilestoneService(
	milestones milestoneStore,
	contracts contractGetter,
	chat chatNotifier,
	publisher events.Publisher,
	auditRepo auditLogger,
	log *zap.Logger,
) *MilestoneService {
	return &MilestoneService{
		milestones: milestones,
		contracts:  contracts,
		chat:       chat,
		publisher:  publisher,
		auditRepo:  auditRepo,
		log:        log,
	}
}

type CreateMilestoneInput struct {
	ContractID  uuid.UUID
	Title       string
	Description *string
	Amount      *decimal.Decimal
	DueDate     *time.Time
}

// Create adds a pending milestone to an active contract. Only the
// contract's client may do this.
func (s *MilestoneService) Create(ctx context.Context, clientID uuid.UUID, in CreateMilestoneInput) (*models.Milestone, error) {
	if in.Title == "" {
		return nil, ErrInvalidMilestoneStatus
	}
	if in.Amount != nil && in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	contract, err := s.contracts.GetByID(ctx, in.ContractID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}
	if contract.ClientID != clientID {
		return nil, ErrNotAuthorized
	}
	if contract.Status != models.ContractStatusActive {
		return nil, ErrContractNotActive
	}

	m := &models.Milestone{
		ContractID:  in.ContractID,
		Title:       in.Title,
		Description: in.Description,
		Amount:      in.Amount,
		Status:      models.MilestoneStatusPending,
		DueDate:     in.DueDate,
	}
	if err := s.milestones.Create(ctx, m); err != nil {
		return nil, err
	}

	if err := s.chat.NotifyContractRoom(ctx, contract.ID, models.MessageTypeMilestoneUpdate,
		fmt.Sprintf("Milestone added: %s", m.Title)); err != nil {
		s.log.Warn("milestone chat notice", zap.Error(err), zap.String("milestone_id", m.ID.String()))
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   models.ActorUser,
		Action:      "milestone_create",
		EntityType:  "milestone",
		EntityID:    &m.ID,
		Meta:        map[string]any{"contract_id": contract.ID.String(), "title": m.Title},
	})

	return m, nil
}

// UpdateStatus applies a participant-requested transition. Overdue is not
// user settable; it is reached only by the scheduled sweep.
func (s *MilestoneService) UpdateStatus(ctx context.Context, userID, milestoneID uuid.UUID, target string) (*models.Milestone, error) {
	if !models.IsUserSettableMilestoneStatus(target) {
		return nil, ErrInvalidMilestoneStatus
	}

	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMilestoneNotFound
		}
		return nil, err
	}

	contract, err := s.contracts.GetByID(ctx, m.ContractID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != userID && contract.FreelancerID != userID {
		return nil, ErrNotAuthorized
	}
	if contract.Status != models.ContractStatusActive {
		return nil, ErrContractNotActive
	}

	if !models.IsValidMilestoneTransition(m.Status, target) {
		return nil, ErrInvalidMilestoneStatus
	}

	updated, err := s.milestones.UpdateStatus(ctx, m.ID, m.Status, target)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Lost the race; the row moved on since we read it.
		return nil, ErrInvalidMilestoneStatus
	}

	if err := s.chat.NotifyContractRoom(ctx, contract.ID, models.MessageTypeMilestoneUpdate,
		fmt.Sprintf("Milestone %q is now %s.", m.Title, target)); err != nil {
		s.log.Warn("milestone chat notice", zap.Error(err), zap.String("milestone_id", m.ID.String()))
	}

	_ = s.publisher.Publish(ctx, events.StreamChat, events.Event{
		Type: events.EventMilestoneStatusChanged,
		Payload: map[string]any{
			"milestone_id": m.ID.String(),
			"contract_id":  contract.ID.String(),
			"from":         m.Status,
			"to":           target,
		},
	})

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "milestone_status_change",
		EntityType:  "milestone",
		EntityID:    &m.ID,
		Meta:        map[string]any{"from": m.Status, "to": target},
	})

	return s.milestones.GetByID(ctx, m.ID)
}

type MilestoneProgress struct {
	Milestones        []models.Milestone `json:"milestones"`
	Total             int                `json:"total"`
	Completed         int                `json:"completed"`
	CompletionPercent decimal.Decimal    `json:"completion_percent"`
}

// ListForContract returns a contract's milestones with derived progress,
// for either participant.
func (s *MilestoneService) ListForContract(ctx context.Context, userID, contractID uuid.UUID) (*MilestoneProgress, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}
	if contract.ClientID != userID && contract.FreelancerID != userID {
		return nil, ErrNotAuthorized
	}

	milestones, err := s.milestones.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, m := range milestones {
		if m.Status == models.MilestoneStatusCompleted {
			completed++
		}
	}
	return &MilestoneProgress{
		Milestones:        milestones,
		Total:             len(milestones),
		Completed:         completed,
		CompletionPercent: models.CompletionPercent(completed, len(milestones)),
	}, nil
}

// RunOverdueSweep flags pending and in-progress milestones whose due date
// has passed. Each flip is guarded on the status we read, so a milestone
// completed mid-sweep is left alone. Returns the number flagged.
func (s *MilestoneService) RunOverdueSweep(ctx context.Context, batchSize int) (int, error) {
	overdue, err := s.milestones.ListOverdue(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, m := range overdue {
		updated, err := s.milestones.UpdateStatus(ctx, m.ID, m.Status, models.MilestoneStatusOverdue)
		if err != nil {
			s.log.Error("flag overdue milestone", zap.Error(err), zap.String("milestone_id", m.ID.String()))
			continue
		}
		if !updated {
			continue
		}
		flagged++

		if err := s.chat.NotifyContractRoom(ctx, m.ContractID, models.MessageTypeMilestoneUpdate,
			fmt.Sprintf("Milestone %q is overdue.", m.Title)); err != nil {
			s.log.Warn("overdue chat notice", zap.Error(err), zap.String("milestone_id", m.ID.String()))
		}

		_ = s.auditRepo.Log(ctx, models.AuditLog{
			ActorType:  models.ActorSystem,
			Action:     "milestone_overdue",
			EntityType: "milestone",
			EntityID:   &m.ID,
			Meta:       map[string]any{"from": m.Status},
		})
	}
	if flagged > 0 {
		s.log.Info("milestone overdue sweep", zap.Int("flagged", flagged))
	}
	return flagged, nil
}
