package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a per-(user, role) balance record. Available and frozen are
// partitions of the same pot: freezing moves funds between them without
// changing their sum. Both stay >= 0 at all times.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Role      string          `json:"role"` // client / freelancer
	Available decimal.Decimal `json:"available_balance"`
	Frozen    decimal.Decimal `json:"frozen_balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Total returns available + frozen.
func (w *Wallet) Total() decimal.Decimal {
	return w.Available.Add(w.Frozen)
}

// Freeze statuses
const (
	FreezeStatusFrozen   = "frozen"
	FreezeStatusReleased = "released"
)

// WalletFreeze records a single escrow hold of client funds against a project.
type WalletFreeze struct {
	ID         uuid.UUID       `json:"id"`
	ProjectID  uuid.UUID       `json:"project_id"`
	ClientID   uuid.UUID       `json:"client_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"` // frozen / released
	CreatedAt  time.Time       `json:"created_at"`
	ReleasedAt *time.Time      `json:"released_at,omitempty"`
}

// Deposit order statuses
const (
	DepositOrderCreated = "created"
	DepositOrderPaid    = "paid"
)

// DepositOrder pins a gateway order to the user and amount it was created
// for. Confirmation credits this recorded amount; the signature alone only
// proves the payment happened, not how much was deposited.
type DepositOrder struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   string          `json:"order_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Role      string          `json:"role"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Receipt   string          `json:"receipt"`
	Status    string          `json:"status"` // created / paid
	CreatedAt time.Time       `json:"created_at"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
}
