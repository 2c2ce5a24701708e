package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contract statuses
const (
	ContractStatusActive    = "active"
	ContractStatusCompleted = "completed"
	ContractStatusCancelled = "cancelled"
)

// Valid state transitions: from -> []to
var ValidContractTransitions = map[string][]string{
	ContractStatusActive:    {ContractStatusCompleted, ContractStatusCancelled},
	ContractStatusCompleted: {},
	ContractStatusCancelled: {},
}

func IsValidContractTransition(from, to string) bool {
	allowed, ok := ValidContractTransitions[from]
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

type Contract struct {
	ID           uuid.UUID       `json:"id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	BidID        uuid.UUID       `json:"bid_id"`
	ClientID     uuid.UUID       `json:"client_id"`
	FreelancerID uuid.UUID       `json:"freelancer_id"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ContractWithProject embeds Contract and adds project info for listing views.
type ContractWithProject struct {
	Contract
	ProjectTitle *string `json:"project_title,omitempty"`
}
