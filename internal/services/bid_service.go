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

type bidStore interface {
	Create(ctx context.Context, b *models.Bid) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	GetByProjectAndFreelancer(ctx context.Context, projectID, freelancerID uuid.UUID) (*models.Bid, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.BidWithFreelancer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	RejectSiblings(ctx context.Context, projectID, acceptedBidID uuid.UUID) ([]uuid.UUID, error)
}

type contractStore interface {
	Create(ctx context.Context, c *models.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ContractWithProject, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// escrowFreezer is the slice of WalletService bid acceptance needs.
type escrowFreezer interface {
	Freeze(ctx context.Context, clientID, projectID uuid.UUID, amount decimal.Decimal) (*models.WalletFreeze, error)
}

// negotiationRooms is the slice of ChatService the bid lifecycle drives.
type negotiationRooms interface {
	OpenNegotiation(ctx context.Context, bidID, clientID, freelancerID uuid.UUID) (*models.ChatRoom, error)
	ConvertToContract(ctx context.Context, bidID, contractID uuid.UUID) (*models.ChatRoom, error)
	CloseNegotiation(ctx context.Context, bidID uuid.UUID, reason string) error
}

// BidService drives the bid lifecycle. Accepting a bid is the pivot of
// the whole marketplace: it freezes the client's funds, opens the
// contract, converts the negotiation room and rejects every other bid.
type BidService struct {
	bids      bidStore
	projects  projectStore
	contracts contractStore
	escrow    escrowFreezer
	chat      negotiationRooms
	publisher events.Publisher
	auditRepo auditLogger
	log       *zap.Logger
}

func NewBidService(
	bids bidStore,
	projects projectStore,
	contracts contractStore,
	escrow escrowFreezer,
	chat negotiationRooms,
	publisher events.Publisher,
	auditRepo auditLogger,
	log *zap.Logger,
) *BidService {
	return &BidService{
		bids:      bids,
		projects:  projects,
		contracts: contracts,
		escrow:    escrow,
		chat:      chat,
		publisher: publisher,
		auditRepo: auditRepo,
		log:       log,
	}
}

type PlaceBidInput struct {
	ProjectID    uuid.UUID
	Amount       decimal.Decimal
	Proposal     *string
	DeliveryDays int
}

// Place submits a freelancer's bid on an open project and opens the
// negotiation room between the two parties.
func (s *BidService) Place(ctx context.Context, freelancerID uuid.UUID, in PlaceBidInput) (*models.Bid, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) || in.DeliveryDays <= 0 {
		return nil, ErrInvalidAmount
	}

	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, ErrProjectNotOpen
	}
	if project.ClientID == freelancerID {
		return nil, ErrOwnProject
	}

	if _, err := s.bids.GetByProjectAndFreelancer(ctx, in.ProjectID, freelancerID); err == nil {
		return nil, ErrDuplicateBid
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	bid := &models.Bid{
		ProjectID:    in.ProjectID,
		FreelancerID: freelancerID,
		Amount:       in.Amount,
		Proposal:     in.Proposal,
		DeliveryDays: in.DeliveryDays,
		Status:       models.BidStatusPending,
	}
	if err := s.bids.Create(ctx, bid); err != nil {
		return nil, err
	}

	if _, err := s.chat.OpenNegotiation(ctx, bid.ID, project.ClientID, freelancerID); err != nil {
		s.log.Warn("open negotiation room", zap.Error(err), zap.String("bid_id", bid.ID.String()))
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &freelancerID,
		ActorType:   models.ActorUser,
		Action:      "bid_place",
		EntityType:  "bid",
		EntityID:    &bid.ID,
		Meta:        map[string]any{"project_id": in.ProjectID.String(), "amount": in.Amount.String()},
	})

	return bid, nil
}

// Accept turns a pending bid into a contract. The client's funds are
// frozen first; if the wallet cannot cover the bid nothing else happens.
// Every sibling bid is rejected and its negotiation room closed.
func (s *BidService) Accept(ctx context.Context, clientID, bidID uuid.UUID) (*models.Contract, error) {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBidNotFound
		}
		return nil, err
	}
	if bid.Status != models.BidStatusPending {
		return nil, ErrInvalidBidStatus
	}

	project, err := s.projects.GetByID(ctx, bid.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.ClientID != clientID {
		return nil, ErrNotAuthorized
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, ErrProjectNotOpen
	}

	// Escrow first. ErrInsufficientFunds aborts before any status moves.
	if _, err := s.escrow.Freeze(ctx, clientID, project.ID, bid.Amount); err != nil {
		return nil, err
	}

	contract := &models.Contract{
		ProjectID:    project.ID,
		BidID:        bid.ID,
		ClientID:     clientID,
		FreelancerID: bid.FreelancerID,
		Amount:       bid.Amount,
		Status:       models.ContractStatusActive,
	}
	if err := s.contracts.Create(ctx, contract); err != nil {
		return nil, err
	}

	if err := s.bids.UpdateStatus(ctx, bid.ID, models.BidStatusAccepted); err != nil {
		return nil, err
	}
	if err := s.projects.UpdateStatus(ctx, project.ID, models.ProjectStatusInProgress); err != nil {
		return nil, err
	}

	if _, err := s.chat.ConvertToContract(ctx, bid.ID, contract.ID); err != nil {
		s.log.Warn("convert negotiation room", zap.Error(err), zap.String("bid_id", bid.ID.String()))
	}

	rejected, err := s.bids.RejectSiblings(ctx, project.ID, bid.ID)
	if err != nil {
		s.log.Error("reject sibling bids", zap.Error(err), zap.String("project_id", project.ID.String()))
	}
	for _, siblingID := range rejected {
		if err := s.chat.CloseNegotiation(ctx, siblingID, "The client accepted another bid."); err != nil {
			s.log.Warn("close sibling room", zap.Error(err), zap.String("bid_id", siblingID.String()))
		}
		_ = s.publisher.Publish(ctx, events.StreamChat, events.Event{
			Type:    events.EventBidStatusChanged,
			Payload: map[string]any{"bid_id": siblingID.String(), "status": models.BidStatusRejected},
		})
	}

	_ = s.publisher.Publish(ctx, events.StreamChat, events.Event{
		Type: events.EventBidStatusChanged,
		Payload: map[string]any{
			"bid_id":      bid.ID.String(),
			"status":      models.BidStatusAccepted,
			"contract_id": contract.ID.String(),
		},
	})

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   models.ActorUser,
		Action:      "bid_accept",
		EntityType:  "bid",
		EntityID:    &bid.ID,
		Meta: map[string]any{
			"contract_id": contract.ID.String(),
			"amount":      bid.Amount.String(),
			"rejected":    len(rejected),
		},
	})

	return contract, nil
}

// Reject declines a pending bid and closes its negotiation room.
func (s *BidService) Reject(ctx context.Context, clientID, bidID uuid.UUID) error {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBidNotFound
		}
		return err
	}
	project, err := s.projects.GetByID(ctx, bid.ProjectID)
	if err != nil {
		return err
	}
	if project.ClientID != clientID {
		return ErrNotAuthorized
	}
	if !models.IsValidBidTransition(bid.Status, models.BidStatusRejected) {
		return ErrInvalidBidStatus
	}

	if err := s.bids.UpdateStatus(ctx, bid.ID, models.BidStatusRejected); err != nil {
		return err
	}
	if err := s.chat.CloseNegotiation(ctx, bid.ID, "Bid was rejected."); err != nil {
		s.log.Warn("close negotiation room", zap.Error(err), zap.String("bid_id", bid.ID.String()))
	}

	_ = s.publisher.Publish(ctx, events.StreamChat, events.Event{
		Type:    events.EventBidStatusChanged,
		Payload: map[string]any{"bid_id": bid.ID.String(), "status": models.BidStatusRejected},
	})

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   models.ActorUser,
		Action:      "bid_reject",
		EntityType:  "bid",
		EntityID:    &bid.ID,
	})
	return nil
}

// Withdraw lets a freelancer pull a pending bid back.
func (s *BidService) Withdraw(ctx context.Context, freelancerID, bidID uuid.UUID) error {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBidNotFound
		}
		return err
	}
	if bid.FreelancerID != freelancerID {
		return ErrNotAuthorized
	}
	if !models.IsValidBidTransition(bid.Status, models.BidStatusWithdrawn) {
		return ErrInvalidBidStatus
	}

	if err := s.bids.UpdateStatus(ctx, bid.ID, models.BidStatusWithdrawn); err != nil {
		return err
	}
	if err := s.chat.CloseNegotiation(ctx, bid.ID, "Bid was withdrawn."); err != nil {
		s.log.Warn("close negotiation room", zap.Error(err), zap.String("bid_id", bid.ID.String()))
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &freelancerID,
		ActorType:   models.ActorUser,
		Action:      "bid_withdraw",
		EntityType:  "bid",
		EntityID:    &bid.ID,
	})
	return nil
}

// ListForProject returns a project's bids to its client.
func (s *BidService) ListForProject(ctx context.Context, userID, projectID uuid.UUID) ([]models.BidWithFreelancer, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if project.ClientID != userID {
		return nil, ErrNotAuthorized
	}
	return s.bids.ListByProject(ctx, projectID)
}
