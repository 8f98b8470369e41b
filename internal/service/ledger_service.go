package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ridewallet/internal/core/domain"
	"ridewallet/internal/core/ports"
	"ridewallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const referenceTTL = 24 * time.Hour

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	refCache   ports.ReferenceCache
	transactor ports.DBTransactor
	minTopup   int64
	maxTopup   int64
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	refCache ports.ReferenceCache,
	transactor ports.DBTransactor,
	minTopup int64,
	maxTopup int64,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		refCache:   refCache,
		transactor: transactor,
		minTopup:   minTopup,
		maxTopup:   maxTopup,
		log:        log,
	}
}

// GetOrCreateWallet returns the owner's wallet, creating a zero-balance one
// on first access. Safe under concurrent first-access: the insert is a no-op
// when another request won the race, and the winner's row is re-read.
func (s *LedgerServiceImpl) GetOrCreateWallet(ctx context.Context, ownerID uuid.UUID, ownerType domain.OwnerType) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = domain.NewWallet(ownerID, ownerType)
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	// Re-read: a concurrent request may have created the row first.
	wallet, err = s.walletRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reread wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.InternalError(fmt.Errorf("wallet vanished after create"))
	}
	return wallet, nil
}

// Process applies one balance mutation with pessimistic locking. It is
// idempotent per reference number: replays return the original transaction.
func (s *LedgerServiceImpl) Process(ctx context.Context, req ports.ProcessRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}
	if !req.Type.Valid() {
		return nil, apperror.Validation("unknown transaction type")
	}
	if req.ReferenceNumber == "" {
		return nil, apperror.Validation("reference number is required")
	}

	// Layer 1: Redis reference check (best effort)
	cached, err := s.refCache.Get(ctx, req.ReferenceNumber)
	if err != nil {
		s.log.Warn().Err(err).Str("reference", req.ReferenceNumber).Msg("redis reference check failed, falling through to DB")
	}
	if cached != nil {
		return s.unmarshalCachedTransaction(cached)
	}

	// Layer 2: DB reference check
	existing, err := s.txRepo.GetByReference(ctx, req.ReferenceNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db reference check: %w", err))
	}
	if existing != nil {
		return existing, nil
	}

	// Begin database transaction
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock & get wallet
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, req.WalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if !wallet.IsActive() {
		return nil, apperror.ErrWalletNotActive()
	}

	// Business rules: funds and payout bounds
	balanceBefore := wallet.Balance
	if !req.Type.IsCredit() {
		if wallet.Balance < req.Amount {
			return nil, apperror.ErrInsufficientFunds()
		}
		if wallet.Type == domain.OwnerTypeDriver && req.Amount > wallet.PendingPayouts {
			return nil, apperror.ErrPayoutExceedsPending()
		}
	}

	now := time.Now().UTC()
	wallet.Apply(req.Type, req.Amount, now)

	txn := &domain.Transaction{
		ID:              uuid.New(),
		WalletID:        wallet.ID,
		Type:            req.Type,
		Amount:          req.Amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    wallet.Balance,
		Description:     req.Description,
		ReferenceNumber: req.ReferenceNumber,
		PaymentMethod:   req.PaymentMethod,
		Status:          domain.TransactionStatusCompleted,
		CreatedAt:       now,
	}

	// Persist: ledger entry first so the uniqueness constraint fires before
	// any balance write.
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			// Lost the race to a concurrent replay. Roll back and return
			// the winner's row.
			_ = dbTx.Rollback(ctx)
			winner, rerr := s.txRepo.GetByReference(ctx, req.ReferenceNumber)
			if rerr != nil {
				return nil, apperror.InternalError(fmt.Errorf("reread duplicate reference: %w", rerr))
			}
			if winner == nil {
				return nil, apperror.InternalError(fmt.Errorf("duplicate reference %s not found on reread", req.ReferenceNumber))
			}
			return winner, nil
		}
		return nil, apperror.InternalError(fmt.Errorf("insert transaction: %w", err))
	}

	if err := s.walletRepo.Update(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.cacheTransaction(ctx, txn)

	s.log.Info().
		Str("transaction_id", txn.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Str("type", string(txn.Type)).
		Int64("amount", txn.Amount).
		Int64("balance_after", txn.BalanceAfter).
		Str("reference", txn.ReferenceNumber).
		Msg("Transaction processed")

	return txn, nil
}

// AddMoney credits a customer wallet directly, bypassing the gateway.
func (s *LedgerServiceImpl) AddMoney(ctx context.Context, req ports.AddMoneyRequest) (*domain.Transaction, error) {
	if req.Amount < s.minTopup || req.Amount > s.maxTopup {
		return nil, apperror.ErrInvalidAmount(s.minTopup, s.maxTopup)
	}
	if !req.Method.Valid() {
		return nil, apperror.Validation("unknown payment method")
	}

	wallet, err := s.GetOrCreateWallet(ctx, req.OwnerID, domain.OwnerTypeCustomer)
	if err != nil {
		return nil, err
	}

	desc := req.Description
	if desc == "" {
		desc = "Added money to wallet"
	}

	method := req.Method
	return s.Process(ctx, ports.ProcessRequest{
		WalletID:        wallet.ID,
		Type:            domain.TransactionTypeAddMoney,
		Amount:          req.Amount,
		ReferenceNumber: domain.NewReferenceNumber("WAL"),
		Description:     desc,
		PaymentMethod:   &method,
	})
}

// RidePayment debits the rider and credits the driver as two single-wallet
// mutations sharing the ride reference. The rider debit is authoritative:
// if the driver credit fails after the debit committed, the error is logged
// for operator follow-up and the rider transaction is still returned.
func (s *LedgerServiceImpl) RidePayment(ctx context.Context, req ports.RidePaymentRequest) (*domain.Transaction, error) {
	if req.RideRef == "" {
		return nil, apperror.Validation("ride reference is required")
	}

	riderWallet, err := s.GetOrCreateWallet(ctx, req.RiderID, domain.OwnerTypeCustomer)
	if err != nil {
		return nil, err
	}
	driverWallet, err := s.GetOrCreateWallet(ctx, req.DriverID, domain.OwnerTypeDriver)
	if err != nil {
		return nil, err
	}

	method := domain.PaymentMethodWallet
	riderTxn, err := s.Process(ctx, ports.ProcessRequest{
		WalletID:        riderWallet.ID,
		Type:            domain.TransactionTypeRidePayment,
		Amount:          req.Amount,
		ReferenceNumber: "RIDE-" + req.RideRef,
		Description:     fmt.Sprintf("Payment for ride %s", req.RideRef),
		PaymentMethod:   &method,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.Process(ctx, ports.ProcessRequest{
		WalletID:        driverWallet.ID,
		Type:            domain.TransactionTypeCredit,
		Amount:          req.Amount,
		ReferenceNumber: "EARN-" + req.RideRef,
		Description:     fmt.Sprintf("Earnings for ride %s", req.RideRef),
	}); err != nil {
		s.log.Error().Err(err).
			Str("ride_ref", req.RideRef).
			Str("driver_wallet_id", driverWallet.ID.String()).
			Msg("Driver credit failed after rider debit, needs manual reconciliation")
	}

	return riderTxn, nil
}

// Refund reverses a completed ride payment back into the rider wallet.
// At most one refund per original payment: the refund reference is derived
// from the original reference, so replays hit the idempotency path.
func (s *LedgerServiceImpl) Refund(ctx context.Context, req ports.RefundRequest) (*domain.Transaction, error) {
	original, err := s.txRepo.GetByReference(ctx, req.OriginalReference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get original transaction: %w", err))
	}
	if original == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if original.Type != domain.TransactionTypeRidePayment || original.Status != domain.TransactionStatusCompleted {
		return nil, apperror.ErrRefundNotAllowed()
	}

	wallet, err := s.walletRepo.GetByOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil || wallet.ID != original.WalletID {
		return nil, apperror.ErrRefundNotAllowed()
	}

	amount := original.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 {
		return nil, apperror.Validation("refund amount must be positive")
	}
	if amount > original.Amount {
		return nil, apperror.ErrRefundAmountExceedsOriginal()
	}

	desc := "Refund for " + req.OriginalReference
	if req.Reason != "" {
		desc = fmt.Sprintf("Refund for %s: %s", req.OriginalReference, req.Reason)
	}

	return s.Process(ctx, ports.ProcessRequest{
		WalletID:        wallet.ID,
		Type:            domain.TransactionTypeRefund,
		Amount:          amount,
		ReferenceNumber: "REFUND-" + req.OriginalReference,
		Description:     desc,
	})
}

// Bonus grants a promotional credit to the owner's wallet.
func (s *LedgerServiceImpl) Bonus(ctx context.Context, req ports.BonusRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}

	wallet, err := s.GetOrCreateWallet(ctx, req.OwnerID, domain.OwnerTypeCustomer)
	if err != nil {
		return nil, err
	}

	desc := req.Description
	if desc == "" {
		desc = "Promotional bonus"
	}

	return s.Process(ctx, ports.ProcessRequest{
		WalletID:        wallet.ID,
		Type:            domain.TransactionTypeBonus,
		Amount:          req.Amount,
		ReferenceNumber: domain.NewReferenceNumber("BONUS"),
		Description:     desc,
	})
}

// Payout debits a driver wallet for settlement to their bank account.
// Process enforces both the balance and the pending-payout bound.
func (s *LedgerServiceImpl) Payout(ctx context.Context, req ports.PayoutRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}

	wallet, err := s.walletRepo.GetByOwner(ctx, req.DriverID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if wallet.Type != domain.OwnerTypeDriver {
		return nil, apperror.Validation("payouts are only available for driver wallets")
	}

	return s.Process(ctx, ports.ProcessRequest{
		WalletID:        wallet.ID,
		Type:            domain.TransactionTypeDebit,
		Amount:          req.Amount,
		ReferenceNumber: domain.NewReferenceNumber("PAYOUT"),
		Description:     "Payout to bank account",
	})
}

func (s *LedgerServiceImpl) cacheTransaction(ctx context.Context, txn *domain.Transaction) {
	data, err := json.Marshal(txn)
	if err != nil {
		s.log.Warn().Err(err).Msg("marshal transaction for cache failed")
		return
	}
	if err := s.refCache.Set(ctx, txn.ReferenceNumber, data, referenceTTL); err != nil {
		s.log.Warn().Err(err).Str("reference", txn.ReferenceNumber).Msg("redis reference cache set failed")
	}
}

func (s *LedgerServiceImpl) unmarshalCachedTransaction(data []byte) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transaction: %w", err))
	}
	return &txn, nil
}
