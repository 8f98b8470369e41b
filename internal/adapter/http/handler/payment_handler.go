package handler

import (
	"io"

	"ridewallet/internal/adapter/http/dto"
	"ridewallet/internal/core/domain"
	"ridewallet/internal/core/ports"
	"ridewallet/pkg/apperror"
	"ridewallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderWebhookSignature carries the gateway's HMAC over the raw body.
const HeaderWebhookSignature = "X-Webhook-Signature"

// PaymentHandler handles gateway top-up endpoints.
type PaymentHandler struct {
	reconcileSvc ports.ReconcileService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(reconcileSvc ports.ReconcileService) *PaymentHandler {
	return &PaymentHandler{reconcileSvc: reconcileSvc}
}

// CreateOrder handles POST /api/v1/payments/order.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	ownerID, ownerType, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	order, err := h.reconcileSvc.CreateTopupOrder(c.Request.Context(), ports.TopupOrderRequest{
		OwnerID:   ownerID,
		OwnerType: ownerType,
		Amount:    req.Amount,
		Method:    domain.PaymentMethod(req.Method),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromOrder(order))
}

// VerifyPayment handles POST /api/v1/payments/verify.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	ownerID, _, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.reconcileSvc.VerifyPayment(c.Request.Context(), ports.VerifyPaymentRequest{
		OwnerID:   ownerID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(txn))
}

// Webhook handles POST /api/v1/payments/webhook. The gateway retries until
// it sees a 2xx, so everything past a valid signature acks 200.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	signature := c.GetHeader(HeaderWebhookSignature)
	if err := h.reconcileSvc.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"status": "ok"})
}
