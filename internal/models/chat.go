package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat room types
const (
	ChatTypeBidNegotiation = "bid_negotiation"
	ChatTypeContract       = "contract"
)

// Chat room statuses
const (
	ChatStatusActive    = "active"
	ChatStatusCompleted = "completed"
	ChatStatusArchived  = "archived"
	ChatStatusClosed    = "closed"
)

// Valid state transitions: from -> []to
var ValidChatTransitions = map[string][]string{
	ChatStatusActive:    {ChatStatusCompleted, ChatStatusArchived, ChatStatusClosed},
	ChatStatusCompleted: {ChatStatusArchived},
	ChatStatusArchived:  {},
	ChatStatusClosed:    {},
}

func IsValidChatTransition(from, to string) bool {
	allowed, ok := ValidChatTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Sender types
const (
	SenderClient     = "client"
	SenderFreelancer = "freelancer"
	SenderSystem     = "system"
)

// Message types
const (
	MessageTypeText            = "text"
	MessageTypeSystem          = "system_notification"
	MessageTypeBidAction       = "bid_action"
	MessageTypeMilestoneUpdate = "milestone_update"
)

// ChatRoom is a conversation container scoped to a bid negotiation or a
// contract. Exactly one room exists per (chat_type, reference_id). A
// negotiation room converts in place to a contract room when the bid is
// accepted: same row, message history retained, original_bid_id remembers
// where it came from.
type ChatRoom struct {
	ID             uuid.UUID  `json:"id"`
	ChatType       string     `json:"chat_type"` // bid_negotiation / contract
	ReferenceID    uuid.UUID  `json:"reference_id"`
	ClientID       uuid.UUID  `json:"client_id"`
	FreelancerID   uuid.UUID  `json:"freelancer_id"`
	Status         string     `json:"status"`
	OriginalBidID  *uuid.UUID `json:"original_bid_id,omitempty"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsParticipant reports whether userID may read or write this room.
func (r *ChatRoom) IsParticipant(userID uuid.UUID) bool {
	return r.ClientID == userID || r.FreelancerID == userID
}

// SenderTypeFor returns the sender type recorded for a participant.
func (r *ChatRoom) SenderTypeFor(userID uuid.UUID) string {
	if r.ClientID == userID {
		return SenderClient
	}
	return SenderFreelancer
}

// ChatMessage belongs to exactly one room. System messages carry a nil
// SenderID and SenderSystem sender type.
type ChatMessage struct {
	ID          uuid.UUID  `json:"id"`
	ChatRoomID  uuid.UUID  `json:"chat_room_id"`
	SenderID    *uuid.UUID `json:"sender_id,omitempty"`
	SenderType  string     `json:"sender_type"`  // client / freelancer / system
	MessageType string     `json:"message_type"` // text / system_notification / bid_action / milestone_update
	Content     string     `json:"content"`
	IsRead      bool       `json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ChatRoomWithPreview embeds ChatRoom plus derived listing fields.
type ChatRoomWithPreview struct {
	ChatRoom
	LastMessage *string `json:"last_message,omitempty"`
	UnreadCount int     `json:"unread_count"`
}
