package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateReference is returned by the transaction repository when an
// insert hits the reference_number uniqueness constraint. The processor
// treats it as "already applied" and returns the original row.
var ErrDuplicateReference = errors.New("duplicate reference number")

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	// Customer wallet types.
	TransactionTypeAddMoney    TransactionType = "add_money"
	TransactionTypeRidePayment TransactionType = "ride_payment"
	TransactionTypeRefund      TransactionType = "refund"
	TransactionTypeBonus       TransactionType = "bonus"
	// Driver wallet types.
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// IsCredit returns true if this type adds to the balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeAddMoney, TransactionTypeRefund, TransactionTypeBonus, TransactionTypeCredit:
		return true
	}
	return false
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeAddMoney, TransactionTypeRidePayment, TransactionTypeRefund,
		TransactionTypeBonus, TransactionTypeCredit, TransactionTypeDebit:
		return true
	}
	return false
}

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Valid reports whether s is a known transaction status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

// PaymentMethod enumerates accepted top-up instruments.
type PaymentMethod string

const (
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodNetbanking PaymentMethod = "netbanking"
	PaymentMethodWallet     PaymentMethod = "wallet"
)

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodUPI, PaymentMethodCard, PaymentMethodNetbanking, PaymentMethodWallet:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry recording one balance change.
// BalanceAfter = BalanceBefore ± Amount (sign by type direction); the
// reference number is globally unique and is the idempotency key.
type Transaction struct {
	ID              uuid.UUID         `json:"id"`
	WalletID        uuid.UUID         `json:"wallet_id"`
	Type            TransactionType   `json:"type"`
	Amount          int64             `json:"amount"`
	BalanceBefore   int64             `json:"balance_before"`
	BalanceAfter    int64             `json:"balance_after"`
	Description     string            `json:"description"`
	ReferenceNumber string            `json:"reference_number"`
	PaymentMethod   *PaymentMethod    `json:"payment_method,omitempty"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

// NewReferenceNumber generates a reference for internally-originated
// mutations (direct add-money, bonuses). Gateway-originated credits use the
// gateway payment id instead, so both notification paths share one key.
func NewReferenceNumber(prefix string) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(buf))
}
