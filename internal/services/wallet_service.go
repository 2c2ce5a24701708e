package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/freelance-marketplace/backend/internal/db"
	"github.com/freelance-marketplace/backend/internal/events"
	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/freelance-marketplace/backend/internal/payments"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// walletStore is the slice of WalletRepo the escrow engine needs.
type walletStore interface {
	Get(ctx context.Context, userID uuid.UUID, role string) (*models.Wallet, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, role string) (*models.Wallet, error)
	Create(ctx context.Context, tx pgx.Tx, w *models.Wallet) error
	UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, available, frozen decimal.Decimal) error
	CreateFreeze(ctx context.Context, tx pgx.Tx, f *models.WalletFreeze) error
	ReleaseFreeze(ctx context.Context, tx pgx.Tx, projectID, clientID uuid.UUID) (bool, error)
	GetFreezeByProject(ctx context.Context, projectID uuid.UUID) (*models.WalletFreeze, error)
}

type transactionStore interface {
	Insert(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
	ExternalPaymentExists(ctx context.Context, tx pgx.Tx, externalPaymentID string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, role string, limit, offset int) ([]models.Transaction, error)
	EarningsTotal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	MonthlyEarnings(ctx context.Context, userID uuid.UUID, months int) ([]models.MonthlyEarnings, error)
}

type paymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string, notes map[string]string) (*payments.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// depositOrderStore records which user and amount each gateway order was
// created for, so confirmation credits what was actually ordered.
type depositOrderStore interface {
	Insert(ctx context.Context, o *models.DepositOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*models.DepositOrder, error)
	MarkPaid(ctx context.Context, orderID string) (bool, error)
}

type auditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

// WalletService is the escrow engine. Every balance mutation runs in a
// single database transaction with the affected wallet rows locked
// (SELECT ... FOR UPDATE); when two wallets are touched they are locked in
// ascending user id order so concurrent releases cannot deadlock.
type WalletService struct {
	txRunner    db.TxRunner
	wallets     walletStore
	txLog       transactionStore
	gateway     paymentGateway
	orders      depositOrderStore
	auditRepo   auditLogger
	publisher   events.Publisher
	currency    string
	withdrawMin decimal.Decimal
	log         *zap.Logger
}

func NewWalletService(
	txRunner db.TxRunner,
	wallets walletStore,
	txLog transactionStore,
	gateway paymentGateway,
	orders depositOrderStore,
	auditRepo auditLogger,
	publisher events.Publisher,
	currency string,
	withdrawMin decimal.Decimal,
	log *zap.Logger,
) *WalletService {
	return &WalletService{
		txRunner:    txRunner,
		wallets:     wallets,
		txLog:       txLog,
		gateway:     gateway,
		orders:      orders,
		auditRepo:   auditRepo,
		publisher:   publisher,
		currency:    currency,
		withdrawMin: withdrawMin,
		log:         log,
	}
}

// lockWallet locks an existing wallet row, creating a zero-balance one
// when create is set. Wallets are created lazily on first credit and are
// never deleted.
func (s *WalletService) lockWallet(ctx context.Context, tx pgx.Tx, userID uuid.UUID, role string, create bool) (*models.Wallet, error) {
	w, err := s.wallets.GetForUpdate(ctx, tx, userID, role)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if !create {
		return nil, ErrWalletNotFound
	}
	w = &models.Wallet{
		UserID:    userID,
		Role:      role,
		Available: decimal.Zero,
		Frozen:    decimal.Zero,
	}
	if err := s.wallets.Create(ctx, tx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WalletService) logTx(ctx context.Context, tx pgx.Tx, w *models.Wallet, txType string, amount, before, after decimal.Decimal, projectID *uuid.UUID, externalPaymentID, description *string) error {
	return s.txLog.Insert(ctx, tx, &models.Transaction{
		UserID:            w.UserID,
		Role:              w.Role,
		Type:              txType,
		Amount:            amount,
		BalanceBefore:     before,
		BalanceAfter:      after,
		ProjectID:         projectID,
		ExternalPaymentID: externalPaymentID,
		Description:       description,
	})
}

// Deposit credits available balance, creating the wallet on first use.
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, role string, amount decimal.Decimal, externalPaymentID *string) (*models.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	var wallet *models.Wallet
	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		if externalPaymentID != nil {
			seen, err := s.txLog.ExternalPaymentExists(ctx, tx, *externalPaymentID)
			if err != nil {
				return err
			}
			if seen {
				return ErrDuplicatePayment
			}
		}

		w, err := s.lockWallet(ctx, tx, userID, role, true)
		if err != nil {
			return err
		}

		before := w.Available
		w.Available = w.Available.Add(amount)
		if err := s.wallets.UpdateBalances(ctx, tx, w.ID, w.Available, w.Frozen); err != nil {
			return err
		}
		if err := s.logTx(ctx, tx, w, models.TxTypeCredit, amount, before, w.Available, nil, externalPaymentID, nil); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "wallet_deposit",
		EntityType:  "wallet",
		EntityID:    &wallet.ID,
		Meta:        map[string]any{"amount": amount.String(), "role": role},
	})

	return wallet, nil
}

// Freeze moves client funds from available to frozen against a project.
// The sum available+frozen is unchanged; only the partition moves.
func (s *WalletService) Freeze(ctx context.Context, clientID, projectID uuid.UUID, amount decimal.Decimal) (*models.WalletFreeze, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	var freeze *models.WalletFreeze
	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		w, err := s.lockWallet(ctx, tx, clientID, models.RoleClient, false)
		if err != nil {
			return err
		}
		if w.Available.LessThan(amount) {
			return ErrInsufficientFunds
		}

		before := w.Available
		w.Available = w.Available.Sub(amount)
		w.Frozen = w.Frozen.Add(amount)
		if err := s.wallets.UpdateBalances(ctx, tx, w.ID, w.Available, w.Frozen); err != nil {
			return err
		}
		if err := s.logTx(ctx, tx, w, models.TxTypeFreeze, amount, before, w.Available, &projectID, nil, nil); err != nil {
			return err
		}

		freeze = &models.WalletFreeze{
			ProjectID: projectID,
			ClientID:  clientID,
			Amount:    amount,
			Status:    models.FreezeStatusFrozen,
		}
		return s.wallets.CreateFreeze(ctx, tx, freeze)
	})
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   models.ActorUser,
		Action:      "wallet_freeze",
		EntityType:  "project",
		EntityID:    &projectID,
		Meta:        map[string]any{"amount": amount.String()},
	})

	return freeze, nil
}

// Release moves frozen client funds to the freelancer's available balance.
// Both wallet rows are locked, ascending user id first.
func (s *WalletService) Release(ctx context.Context, clientID, freelancerID, projectID uuid.UUID, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		var client, freelancer *models.Wallet
		var err error

		// Fixed lock order prevents deadlock between concurrent releases.
		if clientID.String() <= freelancerID.String() {
			if client, err = s.lockWallet(ctx, tx, clientID, models.RoleClient, false); err != nil {
				return err
			}
			if freelancer, err = s.lockWallet(ctx, tx, freelancerID, models.RoleFreelancer, true); err != nil {
				return err
			}
		} else {
			if freelancer, err = s.lockWallet(ctx, tx, freelancerID, models.RoleFreelancer, true); err != nil {
				return err
			}
			if client, err = s.lockWallet(ctx, tx, clientID, models.RoleClient, false); err != nil {
				return err
			}
		}

		if client.Frozen.LessThan(amount) {
			return ErrInsufficientFrozenFunds
		}

		frozenBefore := client.Frozen
		client.Frozen = client.Frozen.Sub(amount)
		if err := s.wallets.UpdateBalances(ctx, tx, client.ID, client.Available, client.Frozen); err != nil {
			return err
		}
		if err := s.logTx(ctx, tx, client, models.TxTypeRelease, amount, frozenBefore, client.Frozen, &projectID, nil, nil); err != nil {
			return err
		}

		availableBefore := freelancer.Available
		freelancer.Available = freelancer.Available.Add(amount)
		if err := s.wallets.UpdateBalances(ctx, tx, freelancer.ID, freelancer.Available, freelancer.Frozen); err != nil {
			return err
		}
		if err := s.logTx(ctx, tx, freelancer, models.TxTypeCredit, amount, availableBefore, freelancer.Available, &projectID, nil, nil); err != nil {
			return err
		}

		released, err := s.wallets.ReleaseFreeze(ctx, tx, projectID, clientID)
		if err != nil {
			return err
		}
		if !released {
			s.log.Warn("no frozen record found for release",
				zap.String("project_id", projectID.String()),
				zap.String("client_id", clientID.String()),
			)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_ = s.publisher.Publish(ctx, events.StreamWallet, events.Event{
		Type: events.EventPaymentReceived,
		Payload: map[string]any{
			"user_id":    freelancerID.String(),
			"project_id": projectID.String(),
			"amount":     amount.String(),
		},
	})

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorType:  models.ActorSystem,
		Action:     "wallet_release",
		EntityType: "project",
		EntityID:   &projectID,
		Meta: map[string]any{
			"client_id":     clientID.String(),
			"freelancer_id": freelancerID.String(),
			"amount":        amount.String(),
		},
	})

	return nil
}

// Withdraw debits available balance. Amounts under the configured
// minimum are rejected.
func (s *WalletService) Withdraw(ctx context.Context, userID uuid.UUID, role string, amount decimal.Decimal) (*models.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) || amount.LessThan(s.withdrawMin) {
		return nil, ErrInvalidAmount
	}

	var wallet *models.Wallet
	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		w, err := s.lockWallet(ctx, tx, userID, role, false)
		if err != nil {
			return err
		}
		if w.Available.LessThan(amount) {
			return ErrInsufficientFunds
		}

		before := w.Available
		w.Available = w.Available.Sub(amount)
		if err := s.wallets.UpdateBalances(ctx, tx, w.ID, w.Available, w.Frozen); err != nil {
			return err
		}
		if err := s.logTx(ctx, tx, w, models.TxTypeDebit, amount, before, w.Available, nil, nil, nil); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "wallet_withdraw",
		EntityType:  "wallet",
		EntityID:    &wallet.ID,
		Meta:        map[string]any{"amount": amount.String(), "role": role},
	})

	return wallet, nil
}

// InitiateDeposit registers an order with the payment gateway and records
// it against the user and amount. The wallet is not touched until the
// payment is confirmed and verified.
func (s *WalletService) InitiateDeposit(ctx context.Context, userID uuid.UUID, role string, amount decimal.Decimal) (*payments.Order, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	receipt := fmt.Sprintf("dep_%s", uuid.New().String())
	order, err := s.gateway.CreateOrder(ctx, amount, s.currency, receipt, map[string]string{
		"user_id": userID.String(),
		"role":    role,
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	if err := s.orders.Insert(ctx, &models.DepositOrder{
		OrderID:  order.ID,
		UserID:   userID,
		Role:     role,
		Amount:   amount,
		Currency: order.Currency,
		Receipt:  receipt,
		Status:   models.DepositOrderCreated,
	}); err != nil {
		return nil, fmt.Errorf("record deposit order: %w", err)
	}
	return order, nil
}

// ConfirmDeposit verifies the gateway signature and credits the amount the
// order was created for, exactly once per payment id. The signature only
// proves the payment happened; the credited amount always comes from the
// recorded order, never from the caller.
func (s *WalletService) ConfirmDeposit(ctx context.Context, userID uuid.UUID, orderID, paymentID, signature string) (*models.Wallet, error) {
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		return nil, ErrPaymentVerificationFailed
	}

	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDepositOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotAuthorized
	}
	if order.Status != models.DepositOrderCreated {
		return nil, ErrDuplicatePayment
	}

	wallet, err := s.Deposit(ctx, order.UserID, order.Role, order.Amount, &paymentID)
	if err != nil {
		return nil, err
	}

	if paid, err := s.orders.MarkPaid(ctx, orderID); err != nil || !paid {
		// The external_payment_id unique index already blocks a second
		// credit; the order row is bookkeeping.
		s.log.Warn("mark deposit order paid", zap.Error(err), zap.String("order_id", orderID))
	}

	_ = s.publisher.Publish(ctx, events.StreamWallet, events.Event{
		Type: events.EventPaymentReceived,
		Payload: map[string]any{
			"user_id":    userID.String(),
			"order_id":   orderID,
			"payment_id": paymentID,
			"amount":     order.Amount.String(),
		},
	})

	return wallet, nil
}

// GetWallet returns the ledger row, or ErrWalletNotFound before first use.
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID, role string) (*models.Wallet, error) {
	w, err := s.wallets.Get(ctx, userID, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

func (s *WalletService) GetTransactions(ctx context.Context, userID uuid.UUID, role string, limit, offset int) ([]models.Transaction, error) {
	return s.txLog.ListByUser(ctx, userID, role, limit, offset)
}

type EarningsReport struct {
	Total   decimal.Decimal          `json:"total"`
	Monthly []models.MonthlyEarnings `json:"monthly"`
}

// GetEarnings derives a freelancer's earnings report from the log.
func (s *WalletService) GetEarnings(ctx context.Context, userID uuid.UUID, months int) (*EarningsReport, error) {
	total, err := s.txLog.EarningsTotal(ctx, userID)
	if err != nil {
		return nil, err
	}
	monthly, err := s.txLog.MonthlyEarnings(ctx, userID, months)
	if err != nil {
		return nil, err
	}
	return &EarningsReport{Total: total, Monthly: monthly}, nil
}
