package services

import (
	"context"
	"errors"
	"time"

	"github.com/freelance-marketplace/backend/internal/events"
	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type chatStore interface {
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	GetRoomByID(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error)
	GetRoomByReference(ctx context.Context, chatType string, referenceID uuid.UUID) (*models.ChatRoom, error)
	ConvertToContract(ctx context.Context, roomID, contractID, bidID uuid.UUID) (bool, error)
	UpdateRoomStatus(ctx context.Context, roomID uuid.UUID, status string) error
	ListRoomsForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ChatRoomWithPreview, error)
	ListArchivableRooms(ctx context.Context, idleSince time.Time, limit int) ([]models.ChatRoom, error)
	InsertMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]models.ChatMessage, error)
	MarkRead(ctx context.Context, roomID, readerID uuid.UUID) error
	UnreadCount(ctx context.Context, roomID, readerID uuid.UUID) (int, error)
}

// ChatService owns room lifecycle and messaging. Rooms follow
// active -> completed -> archived (or active -> closed for lost
// negotiations); a negotiation room converts in place to a contract room
// so history survives bid acceptance.
type ChatService struct {
	rooms     chatStore
	publisher events.Publisher
	log       *zap.Logger
}

func NewChatService(rooms chatStore, publisher events.Publisher, log *zap.Logger) *ChatService {
	return &ChatService{rooms: rooms, publisher: publisher, log: log}
}

// OpenNegotiation returns the negotiation room for a bid, creating it on
// first call. Repeated calls return the same room.
func (s *ChatService) OpenNegotiation(ctx context.Context, bidID, clientID, freelancerID uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.rooms.GetRoomByReference(ctx, models.ChatTypeBidNegotiation, bidID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	room = &models.ChatRoom{
		ChatType:     models.ChatTypeBidNegotiation,
		ReferenceID:  bidID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Status:       models.ChatStatusActive,
	}
	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		// Unique (chat_type, reference_id) may have raced; re-read.
		if existing, lookupErr := s.rooms.GetRoomByReference(ctx, models.ChatTypeBidNegotiation, bidID); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return room, nil
}

// ConvertToContract rewrites a bid's negotiation room in place as the
// contract's room. The guarded update makes concurrent conversions of the
// same room a conflict, not a double conversion.
func (s *ChatService) ConvertToContract(ctx context.Context, bidID, contractID uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.rooms.GetRoomByReference(ctx, models.ChatTypeBidNegotiation, bidID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatRoomNotFound
		}
		return nil, err
	}

	converted, err := s.rooms.ConvertToContract(ctx, room.ID, contractID, bidID)
	if err != nil {
		return nil, err
	}
	if !converted {
		return nil, ErrChatTransitionConflict
	}

	if err := s.PostSystemMessage(ctx, room.ID, models.MessageTypeBidAction, "Bid accepted. This chat now belongs to the contract."); err != nil {
		s.log.Warn("post conversion notice", zap.Error(err), zap.String("room_id", room.ID.String()))
	}

	_ = s.publisher.Publish(ctx, events.StreamChat, events.Event{
		Type: events.EventChatRoomConverted,
		Payload: map[string]any{
			"room_id":     room.ID.String(),
			"bid_id":      bidID.String(),
			"contract_id": contractID.String(),
		},
	})

	return s.rooms.GetRoomByID(ctx, room.ID)
}

// CloseNegotiation closes the room of a rejected or withdrawn bid.
// Missing rooms are fine: not every bid had a conversation.
func (s *ChatService) CloseNegotiation(ctx context.Context, bidID uuid.UUID, reason string) error {
	room, err := s.rooms.GetRoomByReference(ctx, models.ChatTypeBidNegotiation, bidID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if !models.IsValidChatTransition(room.Status, models.ChatStatusClosed) {
		return nil
	}
	if reason != "" {
		if err := s.PostSystemMessage(ctx, room.ID, models.MessageTypeBidAction, reason); err != nil {
			s.log.Warn("post close notice", zap.Error(err), zap.String("room_id", room.ID.String()))
		}
	}
	return s.rooms.UpdateRoomStatus(ctx, room.ID, models.ChatStatusClosed)
}

// CompleteContractRoom marks a contract's room completed. The room stays
// readable; the archival sweep retires it after the grace period.
func (s *ChatService) CompleteContractRoom(ctx context.Context, contractID uuid.UUID) error {
	room, err := s.rooms.GetRoomByReference(ctx, models.ChatTypeContract, contractID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if !models.IsValidChatTransition(room.Status, models.ChatStatusCompleted) {
		return ErrInvalidChatOperation
	}
	if err := s.PostSystemMessage(ctx, room.ID, models.MessageTypeSystem, "Contract completed."); err != nil {
		s.log.Warn("post completion notice", zap.Error(err), zap.String("room_id", room.ID.String()))
	}
	return s.rooms.UpdateRoomStatus(ctx, room.ID, models.ChatStatusCompleted)
}

// SendMessage posts a participant message into an active room.
func (s *ChatService) SendMessage(ctx context.Context, roomID, senderID uuid.UUID, content string) (*models.ChatMessage, error) {
	if content == "" {
		return nil, ErrInvalidChatOperation
	}
	room, err := s.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatRoomNotFound
		}
		return nil, err
	}
	if !room.IsParticipant(senderID) {
		return nil, ErrChatAccessDenied
	}
	if room.Status != models.ChatStatusActive {
		return nil, ErrInvalidChatOperation
	}

	msg := &models.ChatMessage{
		ChatRoomID:  room.ID,
		SenderID:    &senderID,
		SenderType:  room.SenderTypeFor(senderID),
		MessageType: models.MessageTypeText,
		Content:     content,
	}
	if err := s.rooms.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, events.StreamChat, events.Event{
		Type: events.EventChatMessage,
		Payload: map[string]any{
			"room_id":    room.ID.String(),
			"message_id": msg.ID.String(),
			"sender_id":  senderID.String(),
		},
	})

	return msg, nil
}

// PostSystemMessage writes a system notification into a room regardless of
// room status. Used for lifecycle and milestone notices.
func (s *ChatService) PostSystemMessage(ctx context.Context, roomID uuid.UUID, messageType, content string) error {
	msg := &models.ChatMessage{
		ChatRoomID:  roomID,
		SenderType:  models.SenderSystem,
		MessageType: messageType,
		Content:     content,
	}
	if err := s.rooms.InsertMessage(ctx, msg); err != nil {
		return err
	}
	_ = s.publisher.Publish(ctx, events.StreamChat, events.Event{
		Type: events.EventChatMessage,
		Payload: map[string]any{
			"room_id":    roomID.String(),
			"message_id": msg.ID.String(),
		},
	})
	return nil
}

// NotifyContractRoom posts a system message into a contract's room when
// one exists. Missing rooms are not an error.
func (s *ChatService) NotifyContractRoom(ctx context.Context, contractID uuid.UUID, messageType, content string) error {
	room, err := s.rooms.GetRoomByReference(ctx, models.ChatTypeContract, contractID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	return s.PostSystemMessage(ctx, room.ID, messageType, content)
}

func (s *ChatService) ListRooms(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ChatRoomWithPreview, error) {
	return s.rooms.ListRoomsForUser(ctx, userID, limit, offset)
}

// GetMessages returns room history for a participant, newest page first.
func (s *ChatService) GetMessages(ctx context.Context, roomID, readerID uuid.UUID, limit, offset int) ([]models.ChatMessage, error) {
	room, err := s.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatRoomNotFound
		}
		return nil, err
	}
	if !room.IsParticipant(readerID) {
		return nil, ErrChatAccessDenied
	}
	return s.rooms.ListMessages(ctx, roomID, limit, offset)
}

func (s *ChatService) MarkRead(ctx context.Context, roomID, readerID uuid.UUID) error {
	room, err := s.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrChatRoomNotFound
		}
		return err
	}
	if !room.IsParticipant(readerID) {
		return ErrChatAccessDenied
	}
	return s.rooms.MarkRead(ctx, roomID, readerID)
}

// GetRoom returns a room after an access check.
func (s *ChatService) GetRoom(ctx context.Context, roomID, userID uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatRoomNotFound
		}
		return nil, err
	}
	if !room.IsParticipant(userID) {
		return nil, ErrChatAccessDenied
	}
	return room, nil
}

// RunArchivalSweep retires rooms of finished contracts that have been
// idle past the grace period: each gets a final system notice, then
// moves to archived. Returns the number of rooms archived.
func (s *ChatService) RunArchivalSweep(ctx context.Context, gracePeriod time.Duration, batchSize int) (int, error) {
	cutoff := time.Now().Add(-gracePeriod)
	rooms, err := s.rooms.ListArchivableRooms(ctx, cutoff, batchSize)
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, room := range rooms {
		if !models.IsValidChatTransition(room.Status, models.ChatStatusArchived) {
			continue
		}
		if err := s.PostSystemMessage(ctx, room.ID, models.MessageTypeSystem, "This conversation has been archived."); err != nil {
			s.log.Warn("post archival notice", zap.Error(err), zap.String("room_id", room.ID.String()))
		}
		if err := s.rooms.UpdateRoomStatus(ctx, room.ID, models.ChatStatusArchived); err != nil {
			s.log.Error("archive room", zap.Error(err), zap.String("room_id", room.ID.String()))
			continue
		}
		archived++
	}
	if archived > 0 {
		s.log.Info("chat archival sweep", zap.Int("archived", archived))
	}
	return archived, nil
}
