package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/freelance-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type stubBidStore struct {
	bids map[uuid.UUID]*models.Bid
}

func newStubBidStore() *stubBidStore {
	return &stubBidStore{bids: make(map[uuid.UUID]*models.Bid)}
}

func (s *stubBidStore) Create(ctx context.Context, b *models.Bid) error {
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	s.bids[b.ID] = b
	return nil
}

func (s *stubBidStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	b, ok := s.bids[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (s *stubBidStore) GetByProjectAndFreelancer(ctx context.Context, projectID, freelancerID uuid.UUID) (*models.Bid, error) {
	for _, b := range s.bids {
		if b.ProjectID == projectID && b.FreelancerID == freelancerID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubBidStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.BidWithFreelancer, error) {
	var out []models.BidWithFreelancer
	for _, b := range s.bids {
		if b.ProjectID == projectID {
			out = append(out, models.BidWithFreelancer{Bid: *b})
		}
	}
	return out, nil
}

func (s *stubBidStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	b, ok := s.bids[id]
	if !ok {
		return pgx.ErrNoRows
	}
	b.Status = status
	return nil
}

func (s *stubBidStore) RejectSiblings(ctx context.Context, projectID, acceptedBidID uuid.UUID) ([]uuid.UUID, error) {
	var rejected []uuid.UUID
	for _, b := range s.bids {
		if b.ProjectID == projectID && b.ID != acceptedBidID && b.Status == models.BidStatusPending {
			b.Status = models.BidStatusRejected
			rejected = append(rejected, b.ID)
		}
	}
	return rejected, nil
}

type stubProjectStore struct {
	projects map[uuid.UUID]*models.Project
}

func newStubProjectStore() *stubProjectStore {
	return &stubProjectStore{projects: make(map[uuid.UUID]*models.Project)}
}

func (s *stubProjectStore) Create(ctx context.Context, p *models.Project) error {
	p.ID = uuid.New()
	s.projects[p.ID] = p
	return nil
}

func (s *stubProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (s *stubProjectStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	p, ok := s.projects[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Status = status
	return nil
}

func (s *stubProjectStore) List(ctx context.Context, f repositories.ProjectFilter) ([]models.ProjectWithClient, error) {
	var out []models.ProjectWithClient
	for _, p := range s.projects {
		out = append(out, models.ProjectWithClient{Project: *p})
	}
	return out, nil
}

type stubContractStore struct {
	contracts map[uuid.UUID]*models.Contract
}

func newStubContractStore() *stubContractStore {
	return &stubContractStore{contracts: make(map[uuid.UUID]*models.Contract)}
}

func (s *stubContractStore) Create(ctx context.Context, c *models.Contract) error {
	c.ID = uuid.New()
	c.StartedAt = time.Now()
	s.contracts[c.ID] = c
	return nil
}

func (s *stubContractStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	c, ok := s.contracts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (s *stubContractStore) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ContractWithProject, error) {
	var out []models.ContractWithProject
	for _, c := range s.contracts {
		if c.ClientID == userID || c.FreelancerID == userID {
			out = append(out, models.ContractWithProject{Contract: *c})
		}
	}
	return out, nil
}

func (s *stubContractStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	c, ok := s.contracts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.Status = status
	return nil
}

type stubEscrow struct {
	freezeErr  error
	releaseErr error
	frozen     []decimal.Decimal
	released   []decimal.Decimal
}

func (s *stubEscrow) Freeze(ctx context.Context, clientID, projectID uuid.UUID, amount decimal.Decimal) (*models.WalletFreeze, error) {
	if s.freezeErr != nil {
		return nil, s.freezeErr
	}
	s.frozen = append(s.frozen, amount)
	return &models.WalletFreeze{ProjectID: projectID, ClientID: clientID, Amount: amount, Status: models.FreezeStatusFrozen}, nil
}

func (s *stubEscrow) Release(ctx context.Context, clientID, freelancerID, projectID uuid.UUID, amount decimal.Decimal) error {
	if s.releaseErr != nil {
		return s.releaseErr
	}
	s.released = append(s.released, amount)
	return nil
}

type stubRooms struct {
	opened    []uuid.UUID
	converted []uuid.UUID
	closed    []uuid.UUID
	completed []uuid.UUID
}

func (s *stubRooms) OpenNegotiation(ctx context.Context, bidID, clientID, freelancerID uuid.UUID) (*models.ChatRoom, error) {
	s.opened = append(s.opened, bidID)
	return &models.ChatRoom{ID: uuid.New(), ChatType: models.ChatTypeBidNegotiation, ReferenceID: bidID}, nil
}

func (s *stubRooms) ConvertToContract(ctx context.Context, bidID, contractID uuid.UUID) (*models.ChatRoom, error) {
	s.converted = append(s.converted, bidID)
	return &models.ChatRoom{ID: uuid.New(), ChatType: models.ChatTypeContract, ReferenceID: contractID}, nil
}

func (s *stubRooms) CloseNegotiation(ctx context.Context, bidID uuid.UUID, reason string) error {
	s.closed = append(s.closed, bidID)
	return nil
}

func (s *stubRooms) CompleteContractRoom(ctx context.Context, contractID uuid.UUID) error {
	s.completed = append(s.completed, contractID)
	return nil
}

type bidFixture struct {
	svc       *BidService
	bids      *stubBidStore
	projects  *stubProjectStore
	contracts *stubContractStore
	escrow    *stubEscrow
	rooms     *stubRooms
	project   *models.Project
	clientID  uuid.UUID
}

func newBidFixture() *bidFixture {
	f := &bidFixture{
		bids:      newStubBidStore(),
		projects:  newStubProjectStore(),
		contracts: newStubContractStore(),
		escrow:    &stubEscrow{},
		rooms:     &stubRooms{},
		clientID:  uuid.New(),
	}
	f.project = &models.Project{
		ClientID: f.clientID,
		Title:    "build a landing page",
		Budget:   decimal.RequireFromString("1000"),
		Status:   models.ProjectStatusOpen,
	}
	_ = f.projects.Create(context.Background(), f.project)
	f.svc = NewBidService(f.bids, f.projects, f.contracts, f.escrow, f.rooms, &stubPublisher{}, &stubAudit{}, zap.NewNop())
	return f
}

func (f *bidFixture) placeBid(t *testing.T, freelancerID uuid.UUID, amount string) *models.Bid {
	t.Helper()
	bid, err := f.svc.Place(context.Background(), freelancerID, PlaceBidInput{
		ProjectID:    f.project.ID,
		Amount:       decimal.RequireFromString(amount),
		DeliveryDays: 7,
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	return bid
}

func TestPlaceBidOpensNegotiation(t *testing.T) {
	f := newBidFixture()
	freelancerID := uuid.New()

	bid := f.placeBid(t, freelancerID, "500")
	if bid.Status != models.BidStatusPending {
		t.Errorf("status = %s, want pending", bid.Status)
	}
	if len(f.rooms.opened) != 1 || f.rooms.opened[0] != bid.ID {
		t.Errorf("negotiation room not opened for bid")
	}
}

func TestPlaceBidValidation(t *testing.T) {
	f := newBidFixture()
	freelancerID := uuid.New()

	if _, err := f.svc.Place(context.Background(), f.clientID, PlaceBidInput{ProjectID: f.project.ID, Amount: decimal.RequireFromString("100"), DeliveryDays: 5}); !errors.Is(err, ErrOwnProject) {
		t.Errorf("own project err = %v, want ErrOwnProject", err)
	}

	f.placeBid(t, freelancerID, "500")
	if _, err := f.svc.Place(context.Background(), freelancerID, PlaceBidInput{ProjectID: f.project.ID, Amount: decimal.RequireFromString("400"), DeliveryDays: 5}); !errors.Is(err, ErrDuplicateBid) {
		t.Errorf("duplicate err = %v, want ErrDuplicateBid", err)
	}

	f.projects.projects[f.project.ID].Status = models.ProjectStatusInProgress
	if _, err := f.svc.Place(context.Background(), uuid.New(), PlaceBidInput{ProjectID: f.project.ID, Amount: decimal.RequireFromString("400"), DeliveryDays: 5}); !errors.Is(err, ErrProjectNotOpen) {
		t.Errorf("closed project err = %v, want ErrProjectNotOpen", err)
	}
}

func TestAcceptBidFreezesAndRejectsSiblings(t *testing.T) {
	f := newBidFixture()
	winner := f.placeBid(t, uuid.New(), "500")
	loser := f.placeBid(t, uuid.New(), "450")

	contract, err := f.svc.Accept(context.Background(), f.clientID, winner.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if !contract.Amount.Equal(decimal.RequireFromString("500")) {
		t.Errorf("contract amount = %s, want 500", contract.Amount)
	}
	if contract.Status != models.ContractStatusActive {
		t.Errorf("contract status = %s, want active", contract.Status)
	}

	if len(f.escrow.frozen) != 1 || !f.escrow.frozen[0].Equal(decimal.RequireFromString("500")) {
		t.Errorf("escrow freeze = %+v, want one freeze of 500", f.escrow.frozen)
	}
	if f.bids.bids[winner.ID].Status != models.BidStatusAccepted {
		t.Errorf("winner status = %s, want accepted", f.bids.bids[winner.ID].Status)
	}
	if f.bids.bids[loser.ID].Status != models.BidStatusRejected {
		t.Errorf("loser status = %s, want rejected", f.bids.bids[loser.ID].Status)
	}
	if f.projects.projects[f.project.ID].Status != models.ProjectStatusInProgress {
		t.Errorf("project status = %s, want in_progress", f.projects.projects[f.project.ID].Status)
	}
	if len(f.rooms.converted) != 1 || f.rooms.converted[0] != winner.ID {
		t.Errorf("winner room not converted")
	}
	if len(f.rooms.closed) != 1 || f.rooms.closed[0] != loser.ID {
		t.Errorf("loser room not closed")
	}
}

func TestAcceptBidInsufficientFundsAbortsEverything(t *testing.T) {
	f := newBidFixture()
	bid := f.placeBid(t, uuid.New(), "500")
	f.escrow.freezeErr = ErrInsufficientFunds

	_, err := f.svc.Accept(context.Background(), f.clientID, bid.ID)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if f.bids.bids[bid.ID].Status != models.BidStatusPending {
		t.Errorf("bid status = %s, want pending", f.bids.bids[bid.ID].Status)
	}
	if f.projects.projects[f.project.ID].Status != models.ProjectStatusOpen {
		t.Errorf("project status = %s, want open", f.projects.projects[f.project.ID].Status)
	}
	if len(f.contracts.contracts) != 0 {
		t.Errorf("contract created despite failed freeze")
	}
}

func TestAcceptBidAuthorization(t *testing.T) {
	f := newBidFixture()
	bid := f.placeBid(t, uuid.New(), "500")

	if _, err := f.svc.Accept(context.Background(), uuid.New(), bid.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("stranger err = %v, want ErrNotAuthorized", err)
	}

	_, err := f.svc.Accept(context.Background(), f.clientID, bid.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	// Bid is no longer pending.
	if _, err := f.svc.Accept(context.Background(), f.clientID, bid.ID); !errors.Is(err, ErrInvalidBidStatus) {
		t.Errorf("double accept err = %v, want ErrInvalidBidStatus", err)
	}
}

func TestRejectAndWithdraw(t *testing.T) {
	f := newBidFixture()
	freelancerID := uuid.New()
	bid := f.placeBid(t, freelancerID, "500")

	if err := f.svc.Reject(context.Background(), uuid.New(), bid.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("stranger reject err = %v, want ErrNotAuthorized", err)
	}
	if err := f.svc.Reject(context.Background(), f.clientID, bid.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if f.bids.bids[bid.ID].Status != models.BidStatusRejected {
		t.Errorf("status = %s, want rejected", f.bids.bids[bid.ID].Status)
	}
	if err := f.svc.Withdraw(context.Background(), freelancerID, bid.ID); !errors.Is(err, ErrInvalidBidStatus) {
		t.Errorf("withdraw rejected bid err = %v, want ErrInvalidBidStatus", err)
	}

	other := f.placeBid(t, uuid.New(), "300")
	if err := f.svc.Withdraw(context.Background(), other.FreelancerID, other.ID); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if f.bids.bids[other.ID].Status != models.BidStatusWithdrawn {
		t.Errorf("status = %s, want withdrawn", f.bids.bids[other.ID].Status)
	}
}

func TestListForProjectOwnerOnly(t *testing.T) {
	f := newBidFixture()
	f.placeBid(t, uuid.New(), "500")

	bids, err := f.svc.ListForProject(context.Background(), f.clientID, f.project.ID)
	if err != nil {
		t.Fatalf("ListForProject: %v", err)
	}
	if len(bids) != 1 {
		t.Errorf("bids = %d, want 1", len(bids))
	}
	if _, err := f.svc.ListForProject(context.Background(), uuid.New(), f.project.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("stranger err = %v, want ErrNotAuthorized", err)
	}
}
