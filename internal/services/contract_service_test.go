package services

import (
	"context"
	"errors"
	"testing"

	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type stubMilestoneCounter struct {
	total     int
	completed int
}

func (s *stubMilestoneCounter) CountByContract(ctx context.Context, contractID uuid.UUID) (int, int, error) {
	return s.total, s.completed, nil
}

type contractFixture struct {
	svc        *ContractService
	contracts  *stubContractStore
	projects   *stubProjectStore
	milestones *stubMilestoneCounter
	escrow     *stubEscrow
	rooms      *stubRooms
	contract   *models.Contract
	project    *models.Project
}

func newContractFixture() *contractFixture {
	f := &contractFixture{
		contracts:  newStubContractStore(),
		projects:   newStubProjectStore(),
		milestones: &stubMilestoneCounter{},
		escrow:     &stubEscrow{},
		rooms:      &stubRooms{},
	}
	f.project = &models.Project{
		ClientID: uuid.New(),
		Title:    "api integration",
		Budget:   decimal.RequireFromString("800"),
		Status:   models.ProjectStatusInProgress,
	}
	_ = f.projects.Create(context.Background(), f.project)
	f.contract = &models.Contract{
		ProjectID:    f.project.ID,
		BidID:        uuid.New(),
		ClientID:     f.project.ClientID,
		FreelancerID: uuid.New(),
		Amount:       decimal.RequireFromString("800"),
		Status:       models.ContractStatusActive,
	}
	_ = f.contracts.Create(context.Background(), f.contract)
	f.svc = NewContractService(f.contracts, f.projects, f.milestones, f.escrow, f.rooms, &stubPublisher{}, &stubAudit{}, zap.NewNop())
	return f
}

func TestCompleteContractPaysOut(t *testing.T) {
	f := newContractFixture()
	f.milestones.total = 3
	f.milestones.completed = 3

	done, err := f.svc.Complete(context.Background(), f.contract.ClientID, f.contract.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != models.ContractStatusCompleted {
		t.Errorf("contract status = %s, want completed", done.Status)
	}
	if len(f.escrow.released) != 1 || !f.escrow.released[0].Equal(decimal.RequireFromString("800")) {
		t.Errorf("escrow release = %+v, want one release of 800", f.escrow.released)
	}
	if f.projects.projects[f.project.ID].Status != models.ProjectStatusCompleted {
		t.Errorf("project status = %s, want completed", f.projects.projects[f.project.ID].Status)
	}
	if len(f.rooms.completed) != 1 || f.rooms.completed[0] != f.contract.ID {
		t.Errorf("contract room not completed")
	}
}

func TestCompleteContractRequiresAllMilestones(t *testing.T) {
	f := newContractFixture()
	f.milestones.total = 3
	f.milestones.completed = 2

	_, err := f.svc.Complete(context.Background(), f.contract.ClientID, f.contract.ID)
	if !errors.Is(err, ErrMilestonesIncomplete) {
		t.Fatalf("err = %v, want ErrMilestonesIncomplete", err)
	}
	if len(f.escrow.released) != 0 {
		t.Errorf("escrow released with incomplete milestones")
	}
	if f.contracts.contracts[f.contract.ID].Status != models.ContractStatusActive {
		t.Errorf("contract status moved despite failure")
	}
}

func TestCompleteContractWithoutMilestones(t *testing.T) {
	f := newContractFixture()
	// No milestones defined means nothing blocks completion.
	done, err := f.svc.Complete(context.Background(), f.contract.ClientID, f.contract.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != models.ContractStatusCompleted {
		t.Errorf("status = %s, want completed", done.Status)
	}
}

func TestCompleteContractAuthorization(t *testing.T) {
	f := newContractFixture()

	if _, err := f.svc.Complete(context.Background(), f.contract.FreelancerID, f.contract.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("freelancer err = %v, want ErrNotAuthorized", err)
	}
	if _, err := f.svc.Complete(context.Background(), f.contract.ClientID, uuid.New()); !errors.Is(err, ErrContractNotFound) {
		t.Errorf("missing err = %v, want ErrContractNotFound", err)
	}

	f.contracts.contracts[f.contract.ID].Status = models.ContractStatusCompleted
	if _, err := f.svc.Complete(context.Background(), f.contract.ClientID, f.contract.ID); !errors.Is(err, ErrContractNotActive) {
		t.Errorf("double complete err = %v, want ErrContractNotActive", err)
	}
}

func TestCompleteContractFailedReleaseIsRetryable(t *testing.T) {
	f := newContractFixture()
	f.escrow.releaseErr = ErrInsufficientFrozenFunds

	_, err := f.svc.Complete(context.Background(), f.contract.ClientID, f.contract.ID)
	if !errors.Is(err, ErrInsufficientFrozenFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFrozenFunds", err)
	}
	if f.contracts.contracts[f.contract.ID].Status != models.ContractStatusActive {
		t.Errorf("contract status moved despite failed release")
	}

	f.escrow.releaseErr = nil
	if _, err := f.svc.Complete(context.Background(), f.contract.ClientID, f.contract.ID); err != nil {
		t.Fatalf("retry Complete: %v", err)
	}
}

func TestGetContractParticipantsOnly(t *testing.T) {
	f := newContractFixture()

	if _, err := f.svc.Get(context.Background(), f.contract.FreelancerID, f.contract.ID); err != nil {
		t.Errorf("freelancer Get: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), uuid.New(), f.contract.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("stranger err = %v, want ErrNotAuthorized", err)
	}
}
