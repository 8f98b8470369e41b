package dto

import (
	"time"

	"ridewallet/internal/core/domain"
	"ridewallet/internal/core/ports"
)

// AddMoneyRequest is the request body for a direct wallet top-up.
type AddMoneyRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Method      string `json:"payment_method" binding:"required,oneof=upi card netbanking wallet"`
	Description string `json:"description" binding:"omitempty,max=255"`
}

// BonusRequest is the request body for a promotional credit.
type BonusRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"omitempty,max=255"`
}

// PayoutRequest is the request body for a driver payout.
type PayoutRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// RidePaymentRequest is the request body for charging a completed ride.
type RidePaymentRequest struct {
	RiderID  string `json:"rider_id" binding:"required,uuid"`
	DriverID string `json:"driver_id" binding:"required,uuid"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	RideRef  string `json:"ride_ref" binding:"required,max=100"`
}

// RefundRequest is the request body for refunding a ride payment.
type RefundRequest struct {
	OriginalReference string `json:"original_reference" binding:"required,max=120"`
	Amount            *int64 `json:"amount,omitempty" binding:"omitempty,gt=0"`
	Reason            string `json:"reason" binding:"omitempty,max=255"`
}

// CreateOrderRequest is the request body for creating a gateway top-up order.
type CreateOrderRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Method string `json:"payment_method" binding:"required,oneof=upi card netbanking wallet"`
}

// VerifyPaymentRequest is the client-posted gateway checkout confirmation.
type VerifyPaymentRequest struct {
	OrderID   string `json:"gateway_order_id" binding:"required"`
	PaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature string `json:"gateway_signature" binding:"required"`
}

// WalletResponse is the response body for wallet reads.
type WalletResponse struct {
	ID               string  `json:"id"`
	OwnerID          string  `json:"owner_id"`
	OwnerType        string  `json:"owner_type"`
	Balance          int64   `json:"balance"`
	TotalAdded       int64   `json:"total_added,omitempty"`
	TotalSpent       int64   `json:"total_spent,omitempty"`
	TotalEarnings    int64   `json:"total_earnings,omitempty"`
	PendingPayouts   int64   `json:"pending_payouts,omitempty"`
	LastPayoutAmount *int64  `json:"last_payout_amount,omitempty"`
	LastPayoutDate   *string `json:"last_payout_date,omitempty"`
	Status           string  `json:"status"`
}

// TransactionResponse is the response body for ledger entries.
type TransactionResponse struct {
	ID              string  `json:"id"`
	WalletID        string  `json:"wallet_id"`
	Type            string  `json:"type"`
	Amount          int64   `json:"amount"`
	BalanceBefore   int64   `json:"balance_before"`
	BalanceAfter    int64   `json:"balance_after"`
	Description     string  `json:"description"`
	ReferenceNumber string  `json:"reference_number"`
	PaymentMethod   *string `json:"payment_method,omitempty"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
}

// TransactionListResponse wraps a paginated transaction page.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// SummaryResponse is the response for wallet ledger statistics.
type SummaryResponse struct {
	TotalTransactions int64 `json:"total_transactions"`
	Completed         int64 `json:"completed"`
	Pending           int64 `json:"pending"`
	Failed            int64 `json:"failed"`
	TotalCredited     int64 `json:"total_credited"`
	TotalDebited      int64 `json:"total_debited"`
}

// OrderResponse is the response body for a created payment order.
type OrderResponse struct {
	ID             string `json:"id"`
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         int64  `json:"amount"`
	Method         string `json:"payment_method"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

// FromWallet converts a domain wallet into its API shape.
func FromWallet(w *domain.Wallet) WalletResponse {
	resp := WalletResponse{
		ID:               w.ID.String(),
		OwnerID:          w.OwnerID.String(),
		OwnerType:        string(w.Type),
		Balance:          w.Balance,
		TotalAdded:       w.TotalAdded,
		TotalSpent:       w.TotalSpent,
		TotalEarnings:    w.TotalEarnings,
		PendingPayouts:   w.PendingPayouts,
		LastPayoutAmount: w.LastPayoutAmount,
		Status:           string(w.Status),
	}
	if w.LastPayoutDate != nil {
		s := w.LastPayoutDate.Format(time.RFC3339)
		resp.LastPayoutDate = &s
	}
	return resp
}

// FromTransaction converts a domain transaction into its API shape.
func FromTransaction(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              t.ID.String(),
		WalletID:        t.WalletID.String(),
		Type:            string(t.Type),
		Amount:          t.Amount,
		BalanceBefore:   t.BalanceBefore,
		BalanceAfter:    t.BalanceAfter,
		Description:     t.Description,
		ReferenceNumber: t.ReferenceNumber,
		Status:          string(t.Status),
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
	if t.PaymentMethod != nil {
		m := string(*t.PaymentMethod)
		resp.PaymentMethod = &m
	}
	return resp
}

// FromTransactionList converts a ledger page into its API shape.
func FromTransactionList(txns []domain.Transaction, total int64, limit, offset int) TransactionListResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, FromTransaction(&txns[i]))
	}
	return TransactionListResponse{
		Transactions: out,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}
}

// FromSummary converts ledger statistics into their API shape.
func FromSummary(s *ports.WalletSummary) SummaryResponse {
	return SummaryResponse{
		TotalTransactions: s.TotalTransactions,
		Completed:         s.Completed,
		Pending:           s.Pending,
		Failed:            s.Failed,
		TotalCredited:     s.TotalCredited,
		TotalDebited:      s.TotalDebited,
	}
}

// FromOrder converts a payment order into its API shape.
func FromOrder(o *domain.PaymentOrder) OrderResponse {
	return OrderResponse{
		ID:             o.ID.String(),
		GatewayOrderID: o.GatewayOrderID,
		Amount:         o.Amount,
		Method:         string(o.Method),
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
}
