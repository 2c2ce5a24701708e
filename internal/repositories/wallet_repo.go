package repositories

import (
	"context"

	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

func (r *WalletRepo) Get(ctx context.Context, userID uuid.UUID, role string) (*models.Wallet, error) {
	var w models.Wallet
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, role, available_balance, frozen_balance, created_at, updated_at
		FROM wallets WHERE user_id = $1 AND role = $2
	`, userID, role).Scan(&w.ID, &w.UserID, &w.Role, &w.Available, &w.Frozen, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetForUpdate locks the wallet row for the duration of the transaction.
// Returns pgx.ErrNoRows when the wallet does not exist yet.
func (r *WalletRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, role string) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.QueryRow(ctx, `
		SELECT id, user_id, role, available_balance, frozen_balance, created_at, updated_at
		FROM wallets WHERE user_id = $1 AND role = $2
		FOR UPDATE
	`, userID, role).Scan(&w.ID, &w.UserID, &w.Role, &w.Available, &w.Frozen, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create inserts a zero-balance wallet row inside the transaction. The
// unique (user_id, role) index makes concurrent lazy creation race-safe:
// a loser of the race fails and retries GetForUpdate.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *models.Wallet) error {
	return tx.QueryRow(ctx, `
		INSERT INTO wallets (user_id, role, available_balance, frozen_balance)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, w.UserID, w.Role, w.Available, w.Frozen).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

func (r *WalletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, available, frozen decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		UPDATE wallets SET available_balance = $1, frozen_balance = $2, updated_at = now()
		WHERE id = $3
	`, available, frozen, walletID)
	return err
}

// --- Freezes ---

func (r *WalletRepo) CreateFreeze(ctx context.Context, tx pgx.Tx, f *models.WalletFreeze) error {
	return tx.QueryRow(ctx, `
		INSERT INTO wallet_freezes (project_id, client_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, f.ProjectID, f.ClientID, f.Amount, f.Status).Scan(&f.ID, &f.CreatedAt)
}

// ReleaseFreeze transitions the frozen record for (project, client) to
// released. Reports whether a row was actually transitioned, which makes
// repeat release attempts detectable.
func (r *WalletRepo) ReleaseFreeze(ctx context.Context, tx pgx.Tx, projectID, clientID uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE wallet_freezes SET status = $1, released_at = now()
		WHERE project_id = $2 AND client_id = $3 AND status = $4
	`, models.FreezeStatusReleased, projectID, clientID, models.FreezeStatusFrozen)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *WalletRepo) GetFreezeByProject(ctx context.Context, projectID uuid.UUID) (*models.WalletFreeze, error) {
	var f models.WalletFreeze
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, client_id, amount, status, created_at, released_at
		FROM wallet_freezes WHERE project_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, projectID).Scan(&f.ID, &f.ProjectID, &f.ClientID, &f.Amount, &f.Status, &f.CreatedAt, &f.ReleasedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
