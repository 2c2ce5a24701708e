package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freelance-marketplace/backend/internal/events"
	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type stubChatStore struct {
	rooms    map[uuid.UUID]*models.ChatRoom
	messages []models.ChatMessage
}

func newStubChatStore() *stubChatStore {
	return &stubChatStore{rooms: make(map[uuid.UUID]*models.ChatRoom)}
}

func (s *stubChatStore) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	for _, r := range s.rooms {
		if r.ChatType == room.ChatType && r.ReferenceID == room.ReferenceID {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	room.ID = uuid.New()
	room.LastActivityAt = time.Now()
	s.rooms[room.ID] = room
	return nil
}

func (s *stubChatStore) GetRoomByID(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	r, ok := s.rooms[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r, nil
}

func (s *stubChatStore) GetRoomByReference(ctx context.Context, chatType string, referenceID uuid.UUID) (*models.ChatRoom, error) {
	for _, r := range s.rooms {
		if r.ChatType == chatType && r.ReferenceID == referenceID {
			return r, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubChatStore) ConvertToContract(ctx context.Context, roomID, contractID, bidID uuid.UUID) (bool, error) {
	r, ok := s.rooms[roomID]
	if !ok || r.ChatType != models.ChatTypeBidNegotiation {
		return false, nil
	}
	r.ChatType = models.ChatTypeContract
	r.ReferenceID = contractID
	r.OriginalBidID = &bidID
	return true, nil
}

func (s *stubChatStore) UpdateRoomStatus(ctx context.Context, roomID uuid.UUID, status string) error {
	r, ok := s.rooms[roomID]
	if !ok {
		return pgx.ErrNoRows
	}
	r.Status = status
	return nil
}

func (s *stubChatStore) ListRoomsForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ChatRoomWithPreview, error) {
	var out []models.ChatRoomWithPreview
	for _, r := range s.rooms {
		if r.IsParticipant(userID) {
			out = append(out, models.ChatRoomWithPreview{ChatRoom: *r})
		}
	}
	return out, nil
}

func (s *stubChatStore) ListArchivableRooms(ctx context.Context, idleSince time.Time, limit int) ([]models.ChatRoom, error) {
	var out []models.ChatRoom
	for _, r := range s.rooms {
		if r.ChatType != models.ChatTypeContract {
			continue
		}
		if r.Status != models.ChatStatusActive && r.Status != models.ChatStatusCompleted {
			continue
		}
		if r.LastActivityAt.Before(idleSince) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubChatStore) InsertMessage(ctx context.Context, msg *models.ChatMessage) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	s.messages = append(s.messages, *msg)
	if r, ok := s.rooms[msg.ChatRoomID]; ok {
		r.LastActivityAt = msg.CreatedAt
	}
	return nil
}

func (s *stubChatStore) ListMessages(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for _, m := range s.messages {
		if m.ChatRoomID == roomID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubChatStore) MarkRead(ctx context.Context, roomID, readerID uuid.UUID) error {
	return nil
}

func (s *stubChatStore) UnreadCount(ctx context.Context, roomID, readerID uuid.UUID) (int, error) {
	return 0, nil
}

func newChatFixture() (*ChatService, *stubChatStore, *stubPublisher) {
	store := newStubChatStore()
	pub := &stubPublisher{}
	return NewChatService(store, pub, zap.NewNop()), store, pub
}

func TestOpenNegotiationIsIdempotent(t *testing.T) {
	svc, store, _ := newChatFixture()
	bidID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	first, err := svc.OpenNegotiation(context.Background(), bidID, clientID, freelancerID)
	if err != nil {
		t.Fatalf("OpenNegotiation: %v", err)
	}
	second, err := svc.OpenNegotiation(context.Background(), bidID, clientID, freelancerID)
	if err != nil {
		t.Fatalf("second OpenNegotiation: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("got two rooms for one bid: %s, %s", first.ID, second.ID)
	}
	if len(store.rooms) != 1 {
		t.Errorf("rooms = %d, want 1", len(store.rooms))
	}
	if first.Status != models.ChatStatusActive {
		t.Errorf("status = %s, want active", first.Status)
	}
}

func TestConvertToContractKeepsHistory(t *testing.T) {
	svc, _, pub := newChatFixture()
	bidID := uuid.New()
	contractID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	room, err := svc.OpenNegotiation(context.Background(), bidID, clientID, freelancerID)
	if err != nil {
		t.Fatalf("OpenNegotiation: %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), room.ID, clientID, "can you start monday?"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	converted, err := svc.ConvertToContract(context.Background(), bidID, contractID)
	if err != nil {
		t.Fatalf("ConvertToContract: %v", err)
	}
	if converted.ID != room.ID {
		t.Errorf("conversion created a new room")
	}
	if converted.ChatType != models.ChatTypeContract || converted.ReferenceID != contractID {
		t.Errorf("room = %s/%s, want contract/%s", converted.ChatType, converted.ReferenceID, contractID)
	}
	if converted.OriginalBidID == nil || *converted.OriginalBidID != bidID {
		t.Errorf("original bid id not recorded")
	}

	msgs, err := svc.GetMessages(context.Background(), room.ID, clientID, 50, 0)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	// Original message plus the conversion system notice.
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}

	// Second conversion of the same bid must conflict.
	if _, err := svc.ConvertToContract(context.Background(), bidID, uuid.New()); !errors.Is(err, ErrChatRoomNotFound) {
		t.Errorf("second conversion err = %v, want ErrChatRoomNotFound", err)
	}

	var sawConverted bool
	for _, e := range pub.events {
		if e.Type == events.EventChatRoomConverted {
			sawConverted = true
		}
	}
	if !sawConverted {
		t.Error("chat_room_converted event not published")
	}
}

func TestSendMessageChecks(t *testing.T) {
	svc, store, _ := newChatFixture()
	clientID := uuid.New()
	freelancerID := uuid.New()
	room, _ := svc.OpenNegotiation(context.Background(), uuid.New(), clientID, freelancerID)

	if _, err := svc.SendMessage(context.Background(), room.ID, uuid.New(), "hi"); !errors.Is(err, ErrChatAccessDenied) {
		t.Errorf("outsider err = %v, want ErrChatAccessDenied", err)
	}
	if _, err := svc.SendMessage(context.Background(), room.ID, clientID, ""); !errors.Is(err, ErrInvalidChatOperation) {
		t.Errorf("empty content err = %v, want ErrInvalidChatOperation", err)
	}
	if _, err := svc.SendMessage(context.Background(), uuid.New(), clientID, "hi"); !errors.Is(err, ErrChatRoomNotFound) {
		t.Errorf("missing room err = %v, want ErrChatRoomNotFound", err)
	}

	msg, err := svc.SendMessage(context.Background(), room.ID, freelancerID, "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.SenderType != models.SenderFreelancer {
		t.Errorf("sender type = %s, want freelancer", msg.SenderType)
	}

	store.rooms[room.ID].Status = models.ChatStatusClosed
	if _, err := svc.SendMessage(context.Background(), room.ID, clientID, "hi"); !errors.Is(err, ErrInvalidChatOperation) {
		t.Errorf("closed room err = %v, want ErrInvalidChatOperation", err)
	}
}

func TestCloseNegotiationWithoutRoomIsNoop(t *testing.T) {
	svc, _, _ := newChatFixture()
	if err := svc.CloseNegotiation(context.Background(), uuid.New(), "bid rejected"); err != nil {
		t.Fatalf("CloseNegotiation: %v", err)
	}
}

func TestCloseNegotiationPostsNotice(t *testing.T) {
	svc, store, _ := newChatFixture()
	bidID := uuid.New()
	room, _ := svc.OpenNegotiation(context.Background(), bidID, uuid.New(), uuid.New())

	if err := svc.CloseNegotiation(context.Background(), bidID, "Bid was rejected."); err != nil {
		t.Fatalf("CloseNegotiation: %v", err)
	}
	if store.rooms[room.ID].Status != models.ChatStatusClosed {
		t.Errorf("status = %s, want closed", store.rooms[room.ID].Status)
	}
	msgs, _ := store.ListMessages(context.Background(), room.ID, 50, 0)
	if len(msgs) != 1 || msgs[0].SenderType != models.SenderSystem {
		t.Errorf("expected one system notice, got %+v", msgs)
	}
}

func TestArchivalSweep(t *testing.T) {
	svc, store, _ := newChatFixture()

	// Completed contract room idle past the grace period.
	stale := &models.ChatRoom{
		ChatType:     models.ChatTypeContract,
		ReferenceID:  uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: uuid.New(),
		Status:       models.ChatStatusCompleted,
	}
	_ = store.CreateRoom(context.Background(), stale)
	stale.LastActivityAt = time.Now().Add(-10 * 24 * time.Hour)

	// Active conversation inside the grace window stays put.
	fresh := &models.ChatRoom{
		ChatType:     models.ChatTypeContract,
		ReferenceID:  uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: uuid.New(),
		Status:       models.ChatStatusCompleted,
	}
	_ = store.CreateRoom(context.Background(), fresh)

	archived, err := svc.RunArchivalSweep(context.Background(), 7*24*time.Hour, 100)
	if err != nil {
		t.Fatalf("RunArchivalSweep: %v", err)
	}
	if archived != 1 {
		t.Fatalf("archived = %d, want 1", archived)
	}
	if store.rooms[stale.ID].Status != models.ChatStatusArchived {
		t.Errorf("stale room status = %s, want archived", store.rooms[stale.ID].Status)
	}
	if store.rooms[fresh.ID].Status != models.ChatStatusCompleted {
		t.Errorf("fresh room status = %s, want completed", store.rooms[fresh.ID].Status)
	}

	// The archived room carries the final system notice.
	msgs, _ := store.ListMessages(context.Background(), stale.ID, 50, 0)
	if len(msgs) != 1 || msgs[0].SenderType != models.SenderSystem {
		t.Errorf("expected one system notice in archived room, got %+v", msgs)
	}

	// Re-running finds nothing left to archive.
	again, err := svc.RunArchivalSweep(context.Background(), 7*24*time.Hour, 100)
	if err != nil {
		t.Fatalf("second RunArchivalSweep: %v", err)
	}
	if again != 0 {
		t.Errorf("second sweep archived = %d, want 0", again)
	}
}
