package domain

import (
	"time"

	"github.com/google/uuid"
)

// OwnerType distinguishes customer and driver wallets. The accumulator set
// a wallet maintains depends on its flavor.
type OwnerType string

const (
	OwnerTypeCustomer OwnerType = "customer"
	OwnerTypeDriver   OwnerType = "driver"
)

// Valid reports whether t is a known owner type.
func (t OwnerType) Valid() bool {
	return t == OwnerTypeCustomer || t == OwnerTypeDriver
}

// WalletStatus represents the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusSuspended WalletStatus = "suspended"
	WalletStatusClosed    WalletStatus = "closed"
)

// Wallet is a per-owner monetary account with a single authoritative balance.
// Amounts are whole currency units (INR). At most one wallet exists per owner;
// wallets are created lazily and never hard-deleted, only closed.
type Wallet struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Type    OwnerType `json:"owner_type"`
	Balance int64     `json:"balance"`

	// Customer accumulators. Audit counters only — never authoritative
	// balance sources.
	TotalAdded int64 `json:"total_added"`
	TotalSpent int64 `json:"total_spent"`

	// Driver accumulators.
	TotalEarnings    int64      `json:"total_earnings"`
	PendingPayouts   int64      `json:"pending_payouts"`
	LastPayoutAmount *int64     `json:"last_payout_amount,omitempty"`
	LastPayoutDate   *time.Time `json:"last_payout_date,omitempty"`

	Status    WalletStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsActive returns true if the wallet accepts mutations.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// NewWallet builds a zero-balance active wallet for an owner.
func NewWallet(ownerID uuid.UUID, ownerType OwnerType) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Type:      ownerType,
		Status:    WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply records a completed mutation against the wallet in memory: balance
// plus the accumulator for this wallet flavor. The caller persists the result
// inside the same atomic unit as the transaction row.
func (w *Wallet) Apply(txType TransactionType, amount int64, now time.Time) {
	if txType.IsCredit() {
		w.Balance += amount
	} else {
		w.Balance -= amount
	}

	switch w.Type {
	case OwnerTypeCustomer:
		if txType.IsCredit() {
			w.TotalAdded += amount
		} else {
			w.TotalSpent += amount
		}
	case OwnerTypeDriver:
		if txType.IsCredit() {
			w.TotalEarnings += amount
			w.PendingPayouts += amount
		} else {
			w.PendingPayouts -= amount
			w.LastPayoutAmount = &amount
			w.LastPayoutDate = &now
		}
	}

	w.UpdatedAt = now
}
