package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ridewallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, wallet_id, owner_id, gateway_order_id, gateway_payment_id,
	amount, method, status, created_at, updated_at`

// PaymentOrderRepo implements ports.PaymentOrderRepository.
type PaymentOrderRepo struct {
	pool Pool
}

// NewPaymentOrderRepo creates a new PaymentOrderRepo.
func NewPaymentOrderRepo(pool Pool) *PaymentOrderRepo {
	return &PaymentOrderRepo{pool: pool}
}

// Create inserts a new payment order.
func (r *PaymentOrderRepo) Create(ctx context.Context, o *domain.PaymentOrder) error {
	query := `INSERT INTO payment_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		o.ID, o.WalletID, o.OwnerID, o.GatewayOrderID, o.GatewayPaymentID,
		o.Amount, o.Method, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment order: %w", err)
	}
	return nil
}

// GetByGatewayOrderID fetches an order by the id the gateway issued.
func (r *PaymentOrderRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM payment_orders WHERE gateway_order_id = $1`

	o := &domain.PaymentOrder{}
	err := r.pool.QueryRow(ctx, query, gatewayOrderID).Scan(
		&o.ID, &o.WalletID, &o.OwnerID, &o.GatewayOrderID, &o.GatewayPaymentID,
		&o.Amount, &o.Method, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment order: %w", err)
	}
	return o, nil
}

// UpdateStatus transitions an order, recording the gateway payment id when
// the capture notification carries one.
func (r *PaymentOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentOrderStatus, gatewayPaymentID *string) error {
	query := `UPDATE payment_orders
		SET status = $1, gateway_payment_id = COALESCE($2, gateway_payment_id), updated_at = $3
		WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, status, gatewayPaymentID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update payment order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment order not found: %s", id)
	}
	return nil
}
