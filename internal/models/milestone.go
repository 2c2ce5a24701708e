package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Milestone statuses
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
	MilestoneStatusOverdue    = "overdue"
)

// Valid state transitions: from -> []to. Forward only; completed is terminal.
// Overdue is reached solely by the scheduled sweep, never by user action,
// but an overdue milestone may still be worked on and finished.
var ValidMilestoneTransitions = map[string][]string{
	MilestoneStatusPending:    {MilestoneStatusInProgress, MilestoneStatusCompleted, MilestoneStatusOverdue},
	MilestoneStatusInProgress: {MilestoneStatusCompleted, MilestoneStatusOverdue},
	MilestoneStatusOverdue:    {MilestoneStatusInProgress, MilestoneStatusCompleted},
	MilestoneStatusCompleted:  {},
}

func IsValidMilestoneTransition(from, to string) bool {
	allowed, ok := ValidMilestoneTransitions[from]
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

// UserMilestoneStatuses are the targets a participant may request directly.
// Overdue is sweep-only.
func IsUserSettableMilestoneStatus(status string) bool {
	return status == MilestoneStatusInProgress || status == MilestoneStatusCompleted
}

type Milestone struct {
	ID          uuid.UUID        `json:"id"`
	ContractID  uuid.UUID        `json:"contract_id"`
	Title       string           `json:"title"`
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Status      string           `json:"status"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CompletionPercent returns completed/total*100 rounded to two places,
// and zero when the contract has no milestones.
func CompletionPercent(completed, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(completed)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
