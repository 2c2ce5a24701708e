package services

import "errors"

// Sentinel errors surfaced to handlers. Ledger-mutating errors abort the
// whole operation; nothing is partially credited or debited.
var (
	ErrInvalidAmount             = errors.New("amount must be positive")
	ErrInsufficientFunds         = errors.New("insufficient available funds")
	ErrInsufficientFrozenFunds   = errors.New("insufficient frozen funds")
	ErrPaymentVerificationFailed = errors.New("payment signature verification failed")
	ErrDuplicatePayment          = errors.New("payment already processed")
	ErrDepositOrderNotFound      = errors.New("deposit order not found")
	ErrWalletNotFound            = errors.New("wallet not found")

	ErrChatAccessDenied       = errors.New("not a participant of this chat room")
	ErrInvalidChatOperation   = errors.New("chat room does not accept this operation")
	ErrChatRoomNotFound       = errors.New("chat room not found")
	ErrChatTransitionConflict = errors.New("chat room changed concurrently")

	ErrMilestoneNotFound       = errors.New("milestone not found")
	ErrInvalidMilestoneStatus  = errors.New("milestone status transition not allowed")
	ErrContractNotFound        = errors.New("contract not found")
	ErrContractNotActive       = errors.New("contract is not active")
	ErrMilestonesIncomplete    = errors.New("all milestones must be completed first")

	ErrProjectNotFound  = errors.New("project not found")
	ErrProjectNotOpen   = errors.New("project is not open for bidding")
	ErrOwnProject       = errors.New("cannot bid on your own project")
	ErrDuplicateBid     = errors.New("a bid for this project already exists")
	ErrBidNotFound      = errors.New("bid not found")
	ErrNotAuthorized    = errors.New("not authorized for this operation")
	ErrInvalidBidStatus = errors.New("bid status transition not allowed")

	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("unknown role")
)
