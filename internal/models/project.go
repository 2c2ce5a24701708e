package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Project statuses
const (
	ProjectStatusOpen       = "open"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// Valid state transitions: from -> []to. Once a bid is accepted the
// project carries an active contract and frozen escrow, so in_progress
// can only run forward to completed.
var ValidProjectTransitions = map[string][]string{
	ProjectStatusOpen:       {ProjectStatusInProgress, ProjectStatusCancelled},
	ProjectStatusInProgress: {ProjectStatusCompleted},
	ProjectStatusCompleted:  {},
	ProjectStatusCancelled:  {},
}

func IsValidProjectTransition(from, to string) bool {
	allowed, ok := ValidProjectTransitions[from]
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

type Project struct {
	ID          uuid.UUID       `json:"id"`
	ClientID    uuid.UUID       `json:"client_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Budget      decimal.Decimal `json:"budget"`
	Status      string          `json:"status"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProjectWithClient embeds Project and adds client info to avoid N+1 queries.
type ProjectWithClient struct {
	Project
	ClientName *string `json:"client_name,omitempty"`
}
