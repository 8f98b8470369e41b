package ports

import (
	"context"

	"ridewallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic
// locking; Create relies on the owner_id uniqueness constraint so two
// concurrent first-accesses yield exactly one row.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error)
	// Update writes balance, accumulators, status and updated_at in one statement.
	Update(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
}

// TransactionRepository defines persistence operations for ledger entries.
type TransactionRepository interface {
	// Create returns domain.ErrDuplicateReference when the insert violates
	// the reference_number uniqueness constraint.
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByReference(ctx context.Context, referenceNumber string) (*domain.Transaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetSummary(ctx context.Context, walletID uuid.UUID) (*WalletSummary, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	WalletID uuid.UUID
	Type     *domain.TransactionType
	Status   *domain.TransactionStatus
	Limit    int
	Offset   int
}

// WalletSummary holds aggregated ledger statistics for one wallet.
type WalletSummary struct {
	TotalTransactions int64
	Completed         int64
	Pending           int64
	Failed            int64
	TotalCredited     int64 // Sum of completed credit amounts
	TotalDebited      int64 // Sum of completed debit amounts
}

// PaymentOrderRepository defines persistence for gateway payment orders.
type PaymentOrderRepository interface {
	Create(ctx context.Context, order *domain.PaymentOrder) error
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentOrderStatus, gatewayPaymentID *string) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
