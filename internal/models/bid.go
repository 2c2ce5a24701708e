package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid statuses
const (
	BidStatusPending   = "pending"
	BidStatusAccepted  = "accepted"
	BidStatusRejected  = "rejected"
	BidStatusWithdrawn = "withdrawn"
)

// Valid state transitions: from -> []to
var ValidBidTransitions = map[string][]string{
	BidStatusPending:   {BidStatusAccepted, BidStatusRejected, BidStatusWithdrawn},
	BidStatusAccepted:  {},
	BidStatusRejected:  {},
	BidStatusWithdrawn: {},
}

func IsValidBidTransition(from, to string) bool {
	allowed, ok := ValidBidTransitions[from]
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

type Bid struct {
	ID           uuid.UUID       `json:"id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	FreelancerID uuid.UUID       `json:"freelancer_id"`
	Amount       decimal.Decimal `json:"amount"`
	Proposal     *string         `json:"proposal,omitempty"`
	DeliveryDays int             `json:"delivery_days"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BidWithFreelancer embeds Bid and adds freelancer info for listing views.
type BidWithFreelancer struct {
	Bid
	FreelancerName *string `json:"freelancer_name,omitempty"`
}
