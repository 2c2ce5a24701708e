package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TxTypeCredit  = "credit"
	TxTypeDebit   = "debit"
	TxTypeFreeze  = "freeze"
	TxTypeRelease = "release"
)

// Transaction is an append-only log entry for every balance mutation.
// Rows are written only by the escrow engine, inside the same database
// transaction as the wallet update, and never modified afterwards.
type Transaction struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"user_id"`
	Role              string          `json:"role"`
	Type              string          `json:"type"` // credit / debit / freeze / release
	Amount            decimal.Decimal `json:"amount"`
	BalanceBefore     decimal.Decimal `json:"balance_before"`
	BalanceAfter      decimal.Decimal `json:"balance_after"`
	ProjectID         *uuid.UUID      `json:"project_id,omitempty"`
	ExternalPaymentID *string         `json:"external_payment_id,omitempty"`
	Description       *string         `json:"description,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// MonthlyEarnings is a derived reporting row aggregated from the log.
type MonthlyEarnings struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}
