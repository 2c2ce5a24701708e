package events

import "context"

// Event types
const (
	EventChatMessage            = "chat_message"
	EventChatRoomConverted      = "chat_room_converted"
	EventMilestoneStatusChanged = "milestone_status_changed"
	EventContractStatusChanged  = "contract_status_changed"
	EventBidStatusChanged       = "bid_status_changed"
	EventPaymentReceived        = "payment_received"
)

// Streams
const (
	StreamChat   = "events:chat"
	StreamWallet = "events:wallet"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
