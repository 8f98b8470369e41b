package service

import (
	"context"
	"fmt"

	"ridewallet/internal/core/domain"
	"ridewallet/internal/core/ports"
	"ridewallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// QueryServiceImpl implements ports.QueryService.
type QueryServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	ledger     ports.LedgerService
	log        zerolog.Logger
}

// NewQueryService creates a new QueryServiceImpl.
func NewQueryService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	ledger ports.LedgerService,
	log zerolog.Logger,
) *QueryServiceImpl {
	return &QueryServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		ledger:     ledger,
		log:        log,
	}
}

// GetWallet returns the owner's wallet, creating it lazily on first read so
// a fresh account always sees a zero-balance wallet instead of a 404.
func (s *QueryServiceImpl) GetWallet(ctx context.Context, ownerID uuid.UUID, ownerType domain.OwnerType) (*domain.Wallet, error) {
	return s.ledger.GetOrCreateWallet(ctx, ownerID, ownerType)
}

// ListTransactions returns a page of the owner's ledger, newest first.
// Owners without a wallet yet get an empty page.
func (s *QueryServiceImpl) ListTransactions(ctx context.Context, ownerID uuid.UUID, q ports.ListQuery) (*ports.TransactionPage, error) {
	params, err := buildListParams(q)
	if err != nil {
		return nil, err
	}

	page := &ports.TransactionPage{
		Transactions: []domain.Transaction{},
		Limit:        params.Limit,
		Offset:       params.Offset,
	}

	wallet, err := s.walletRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return page, nil
	}

	params.WalletID = wallet.ID
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	page.Transactions = txns
	page.Total = total
	return page, nil
}

// GetSummary returns aggregate ledger statistics for the owner's wallet.
func (s *QueryServiceImpl) GetSummary(ctx context.Context, ownerID uuid.UUID) (*ports.WalletSummary, error) {
	wallet, err := s.walletRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return &ports.WalletSummary{}, nil
	}

	summary, err := s.txRepo.GetSummary(ctx, wallet.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get summary: %w", err))
	}
	return summary, nil
}

// buildListParams validates raw list filters and applies pagination defaults.
func buildListParams(q ports.ListQuery) (ports.TransactionListParams, error) {
	params := ports.TransactionListParams{
		Limit:  q.Limit,
		Offset: q.Offset,
	}

	if params.Limit <= 0 {
		params.Limit = defaultListLimit
	}
	if params.Limit > maxListLimit {
		params.Limit = maxListLimit
	}
	if params.Offset < 0 {
		return params, apperror.Validation("offset must not be negative")
	}

	if q.Type != "" {
		t := domain.TransactionType(q.Type)
		if !t.Valid() {
			return params, apperror.Validation("unknown transaction type filter")
		}
		params.Type = &t
	}
	if q.Status != "" {
		st := domain.TransactionStatus(q.Status)
		if !st.Valid() {
			return params, apperror.Validation("unknown transaction status filter")
		}
		params.Status = &st
	}

	return params, nil
}
