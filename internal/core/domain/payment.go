package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentOrderStatus models the gateway payment lifecycle tracked by the
// reconciler: created -> authorized -> captured, or failed at any stage.
type PaymentOrderStatus string

const (
	PaymentOrderStatusCreated    PaymentOrderStatus = "created"
	PaymentOrderStatusAuthorized PaymentOrderStatus = "authorized"
	PaymentOrderStatusCaptured   PaymentOrderStatus = "captured"
	PaymentOrderStatusFailed     PaymentOrderStatus = "failed"
)

// PaymentOrder is one external top-up attempt. GatewayOrderID is the id the
// gateway issued at order creation; GatewayPaymentID arrives with the capture
// notification (client verify or webhook) and becomes the ledger reference.
type PaymentOrder struct {
	ID               uuid.UUID          `json:"id"`
	WalletID         uuid.UUID          `json:"wallet_id"`
	OwnerID          uuid.UUID          `json:"owner_id"`
	GatewayOrderID   string             `json:"gateway_order_id"`
	GatewayPaymentID *string            `json:"gateway_payment_id,omitempty"`
	Amount           int64              `json:"amount"`
	Method           PaymentMethod      `json:"method"`
	Status           PaymentOrderStatus `json:"status"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// IsTerminal returns true once the order can no longer transition.
func (o *PaymentOrder) IsTerminal() bool {
	return o.Status == PaymentOrderStatusCaptured || o.Status == PaymentOrderStatusFailed
}
