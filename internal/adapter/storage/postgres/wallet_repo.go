package postgres

import (
	"context"
	"errors"
	"fmt"

	"ridewallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletColumns = `id, owner_id, owner_type, balance, total_added, total_spent,
	total_earnings, pending_payouts, last_payout_amount, last_payout_date,
	status, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. The owner_id uniqueness constraint makes
// concurrent first-accesses converge on one row; a conflicting insert is a
// silent no-op and the caller re-reads.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (owner_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.OwnerID, w.Type, w.Balance, w.TotalAdded, w.TotalSpent,
		w.TotalEarnings, w.PendingPayouts, w.LastPayoutAmount, w.LastPayoutDate,
		w.Status, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return r.scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByOwner fetches a wallet by owner ID (non-locking read).
func (r *WalletRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1`
	return r.scanWallet(r.pool.QueryRow(ctx, query, ownerID))
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`
	return r.scanWallet(tx.QueryRow(ctx, query, id))
}

// GetByOwnerForUpdate fetches a wallet by owner ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1 FOR UPDATE`
	return r.scanWallet(tx.QueryRow(ctx, query, ownerID))
}

// Update writes balance, accumulators, status and updated_at within a
// transaction, as one half of the atomic unit (the other being the ledger
// row insert).
func (r *WalletRepo) Update(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `UPDATE wallets SET balance = $1, total_added = $2, total_spent = $3,
		total_earnings = $4, pending_payouts = $5, last_payout_amount = $6,
		last_payout_date = $7, status = $8, updated_at = $9
		WHERE id = $10`

	tag, err := tx.Exec(ctx, query,
		w.Balance, w.TotalAdded, w.TotalSpent,
		w.TotalEarnings, w.PendingPayouts, w.LastPayoutAmount,
		w.LastPayoutDate, w.Status, w.UpdatedAt, w.ID,
	)
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", w.ID)
	}
	return nil
}

// scanWallet is a helper to scan a single row into a Wallet.
func (r *WalletRepo) scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.OwnerID, &w.Type, &w.Balance, &w.TotalAdded, &w.TotalSpent,
		&w.TotalEarnings, &w.PendingPayouts, &w.LastPayoutAmount, &w.LastPayoutDate,
		&w.Status, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}
