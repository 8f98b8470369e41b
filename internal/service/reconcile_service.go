package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ridewallet/config"
	"ridewallet/internal/core/domain"
	"ridewallet/internal/core/ports"
	"ridewallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Webhook event types sent by the gateway.
const (
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentCaptured   = "payment.captured"
	EventPaymentFailed     = "payment.failed"
)

// ReconcileServiceImpl implements ports.ReconcileService. It resolves the
// two racing notifications of one gateway payment (client verify call and
// gateway webhook) into exactly one wallet credit, by using the gateway
// payment id as the ledger reference for both paths.
type ReconcileServiceImpl struct {
	orderRepo ports.PaymentOrderRepository
	ledger    ports.LedgerService
	gateway   ports.GatewayClient
	sigSvc    ports.SignatureService
	cfg       config.GatewayConfig
	minTopup  int64
	maxTopup  int64
	log       zerolog.Logger
}

// NewReconcileService creates a new ReconcileServiceImpl.
func NewReconcileService(
	orderRepo ports.PaymentOrderRepository,
	ledger ports.LedgerService,
	gateway ports.GatewayClient,
	sigSvc ports.SignatureService,
	cfg config.GatewayConfig,
	minTopup int64,
	maxTopup int64,
	log zerolog.Logger,
) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		orderRepo: orderRepo,
		ledger:    ledger,
		gateway:   gateway,
		sigSvc:    sigSvc,
		cfg:       cfg,
		minTopup:  minTopup,
		maxTopup:  maxTopup,
		log:       log,
	}
}

// CreateTopupOrder registers a top-up order with the gateway and records it
// locally in status created. The wallet is not touched until a capture
// notification arrives.
func (s *ReconcileServiceImpl) CreateTopupOrder(ctx context.Context, req ports.TopupOrderRequest) (*domain.PaymentOrder, error) {
	if req.Amount < s.minTopup || req.Amount > s.maxTopup {
		return nil, apperror.ErrInvalidAmount(s.minTopup, s.maxTopup)
	}
	if !req.Method.Valid() {
		return nil, apperror.Validation("unknown payment method")
	}

	wallet, err := s.ledger.GetOrCreateWallet(ctx, req.OwnerID, req.OwnerType)
	if err != nil {
		return nil, err
	}
	if !wallet.IsActive() {
		return nil, apperror.ErrWalletNotActive()
	}

	orderID := uuid.New()
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, req.Amount, orderID.String())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.PaymentOrder{
		ID:             orderID,
		WalletID:       wallet.ID,
		OwnerID:        req.OwnerID,
		GatewayOrderID: gatewayOrderID,
		Amount:         req.Amount,
		Method:         req.Method,
		Status:         domain.PaymentOrderStatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create payment order: %w", err))
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("gateway_order_id", gatewayOrderID).
		Int64("amount", req.Amount).
		Msg("Topup order created")

	return order, nil
}

// VerifyPayment handles the client-side confirmation after checkout. The
// signature covers "orderID|paymentID" with the key secret; a valid signature
// credits the wallet using the payment id as reference, so a webhook for the
// same payment is a no-op replay.
func (s *ReconcileServiceImpl) VerifyPayment(ctx context.Context, req ports.VerifyPaymentRequest) (*domain.Transaction, error) {
	payload := req.OrderID + "|" + req.PaymentID
	if !s.sigSvc.Verify(s.cfg.KeySecret, payload, req.Signature) {
		s.log.Warn().
			Str("gateway_order_id", req.OrderID).
			Msg("Payment verification signature mismatch")
		return nil, apperror.ErrSignatureMismatch()
	}

	order, err := s.orderRepo.GetByGatewayOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get payment order: %w", err))
	}
	if order == nil || order.OwnerID != req.OwnerID {
		return nil, apperror.ErrNotFound("payment order")
	}

	txn, err := s.credit(ctx, order, req.PaymentID)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// webhookEvent mirrors the gateway notification envelope.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook processes a gateway notification. The signature covers the
// raw body with the webhook secret. Events for unknown orders and unknown
// event types are acknowledged so the gateway stops retrying; only signature
// mismatches and internal failures are surfaced.
func (s *ReconcileServiceImpl) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.sigSvc.Verify(s.cfg.WebhookSecret, string(body), signature) {
		s.log.Warn().Msg("Webhook signature mismatch")
		return apperror.ErrSignatureMismatch()
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Warn().Err(err).Msg("Webhook body unmarshal failed, acknowledging")
		return nil
	}

	paymentID := event.Payload.Payment.Entity.ID
	gatewayOrderID := event.Payload.Payment.Entity.OrderID

	switch event.Event {
	case EventPaymentCaptured:
		order, err := s.orderRepo.GetByGatewayOrderID(ctx, gatewayOrderID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("get payment order: %w", err))
		}
		if order == nil {
			s.log.Warn().Str("gateway_order_id", gatewayOrderID).Msg("Webhook for unknown order, acknowledging")
			return nil
		}
		if _, err := s.credit(ctx, order, paymentID); err != nil {
			// Only transient failures are worth a gateway retry. A rejection
			// the retry cannot fix (bad payload, suspended wallet) would loop
			// forever, so it is logged and acked instead.
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.HTTPStatus < http.StatusInternalServerError {
				s.log.Error().Err(err).
					Str("gateway_order_id", gatewayOrderID).
					Str("payment_id", paymentID).
					Msg("Capture credit rejected, acknowledging")
				return nil
			}
			return err
		}
		return nil

	case EventPaymentAuthorized:
		return s.transition(ctx, gatewayOrderID, domain.PaymentOrderStatusAuthorized, paymentID)

	case EventPaymentFailed:
		return s.transition(ctx, gatewayOrderID, domain.PaymentOrderStatusFailed, paymentID)

	default:
		s.log.Info().Str("event", event.Event).Msg("Ignoring unhandled webhook event")
		return nil
	}
}

// credit applies the wallet credit for a captured payment and marks the
// order captured. The ledger call is idempotent per payment id, so repeated
// capture notifications converge on the same transaction.
func (s *ReconcileServiceImpl) credit(ctx context.Context, order *domain.PaymentOrder, paymentID string) (*domain.Transaction, error) {
	method := order.Method
	txn, err := s.ledger.Process(ctx, ports.ProcessRequest{
		WalletID:        order.WalletID,
		Type:            domain.TransactionTypeAddMoney,
		Amount:          order.Amount,
		ReferenceNumber: paymentID,
		Description:     "Added money to wallet",
		PaymentMethod:   &method,
	})
	if err != nil {
		return nil, err
	}

	if order.Status != domain.PaymentOrderStatusCaptured {
		if err := s.orderRepo.UpdateStatus(ctx, order.ID, domain.PaymentOrderStatusCaptured, &paymentID); err != nil {
			// The credit is committed; the order row catches up on the
			// next notification.
			s.log.Error().Err(err).
				Str("order_id", order.ID.String()).
				Msg("Order status update failed after credit")
		}
	}

	return txn, nil
}

// transition records a non-crediting lifecycle update. Terminal orders are
// left untouched so a late failed event cannot downgrade a captured order.
func (s *ReconcileServiceImpl) transition(ctx context.Context, gatewayOrderID string, status domain.PaymentOrderStatus, paymentID string) error {
	order, err := s.orderRepo.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get payment order: %w", err))
	}
	if order == nil {
		s.log.Warn().Str("gateway_order_id", gatewayOrderID).Msg("Webhook for unknown order, acknowledging")
		return nil
	}
	if order.IsTerminal() {
		return nil
	}

	var pid *string
	if paymentID != "" {
		pid = &paymentID
	}
	if err := s.orderRepo.UpdateStatus(ctx, order.ID, status, pid); err != nil {
		return apperror.InternalError(fmt.Errorf("update order status: %w", err))
	}

	s.log.Info().
		Str("gateway_order_id", gatewayOrderID).
		Str("status", string(status)).
		Msg("Payment order transitioned")
	return nil
}
