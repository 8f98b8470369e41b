package ports

import (
	"context"
	"time"

	"ridewallet/internal/core/domain"

	"github.com/google/uuid"
)

// SignatureService handles HMAC-SHA256 signing and verification for the
// gateway contract.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// TokenService handles JWT token operations. Tokens are issued by the
// external auth service with a shared secret; Generate exists for local
// development and tests.
type TokenService interface {
	Generate(ownerID uuid.UUID, ownerType domain.OwnerType) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	OwnerID   uuid.UUID
	OwnerType domain.OwnerType
}

// ReferenceCache is the Redis-layer idempotency fast path keyed by reference
// number. Best-effort only — correctness comes from the database constraint.
type ReferenceCache interface {
	Get(ctx context.Context, referenceNumber string) ([]byte, error) // Returns cached transaction JSON or nil
	Set(ctx context.Context, referenceNumber string, value []byte, ttl time.Duration) error
}

// GatewayClient creates orders with the external payment gateway.
type GatewayClient interface {
	CreateOrder(ctx context.Context, amount int64, receipt string) (gatewayOrderID string, err error)
}

// --- Service Ports (Business Logic) ---

// LedgerService is the transaction processor: every balance mutation funnels
// through Process, which is idempotent per reference number.
type LedgerService interface {
	GetOrCreateWallet(ctx context.Context, ownerID uuid.UUID, ownerType domain.OwnerType) (*domain.Wallet, error)
	Process(ctx context.Context, req ProcessRequest) (*domain.Transaction, error)
	AddMoney(ctx context.Context, req AddMoneyRequest) (*domain.Transaction, error)
	RidePayment(ctx context.Context, req RidePaymentRequest) (*domain.Transaction, error)
	Refund(ctx context.Context, req RefundRequest) (*domain.Transaction, error)
	Bonus(ctx context.Context, req BonusRequest) (*domain.Transaction, error)
	Payout(ctx context.Context, req PayoutRequest) (*domain.Transaction, error)
}

// ProcessRequest holds validated input for one ledger mutation.
type ProcessRequest struct {
	WalletID        uuid.UUID
	Type            domain.TransactionType
	Amount          int64
	ReferenceNumber string
	Description     string
	PaymentMethod   *domain.PaymentMethod
}

// AddMoneyRequest holds input for a direct wallet top-up.
type AddMoneyRequest struct {
	OwnerID     uuid.UUID
	Amount      int64
	Method      domain.PaymentMethod
	Description string
}

// RidePaymentRequest debits the rider wallet and credits the driver wallet
// as two independent single-wallet mutations sharing a ride reference.
type RidePaymentRequest struct {
	RiderID  uuid.UUID
	DriverID uuid.UUID
	Amount   int64
	RideRef  string
}

// RefundRequest holds input for refunding a completed ride payment.
type RefundRequest struct {
	OwnerID           uuid.UUID
	OriginalReference string
	Amount            *int64 // nil = full refund
	Reason            string
}

// BonusRequest holds input for a promotional credit.
type BonusRequest struct {
	OwnerID     uuid.UUID
	Amount      int64
	Description string
}

// PayoutRequest holds input for a driver payout debit.
type PayoutRequest struct {
	DriverID uuid.UUID
	Amount   int64
}

// ReconcileService resolves the two racing notifications of one external
// payment (client verify call, gateway webhook) into exactly one credit.
type ReconcileService interface {
	CreateTopupOrder(ctx context.Context, req TopupOrderRequest) (*domain.PaymentOrder, error)
	VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*domain.Transaction, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

// TopupOrderRequest holds input for creating a gateway top-up order.
type TopupOrderRequest struct {
	OwnerID   uuid.UUID
	OwnerType domain.OwnerType
	Amount    int64
	Method    domain.PaymentMethod
}

// VerifyPaymentRequest holds the client-posted gateway confirmation.
type VerifyPaymentRequest struct {
	OwnerID   uuid.UUID
	OrderID   string
	PaymentID string
	Signature string
}

// QueryService serves read-only wallet and ledger views.
type QueryService interface {
	GetWallet(ctx context.Context, ownerID uuid.UUID, ownerType domain.OwnerType) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, q ListQuery) (*TransactionPage, error)
	GetSummary(ctx context.Context, ownerID uuid.UUID) (*WalletSummary, error)
}

// TransactionPage is one page of ledger history. Limit and Offset are the
// effective values after defaulting and clamping, so callers echo them
// without re-deriving the pagination rules.
type TransactionPage struct {
	Transactions []domain.Transaction
	Total        int64
	Limit        int
	Offset       int
}

// ListQuery holds raw, unvalidated list filters as received from the caller.
type ListQuery struct {
	Type   string
	Status string
	Limit  int
	Offset int
}
