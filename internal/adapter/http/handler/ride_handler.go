package handler

import (
	"ridewallet/internal/adapter/http/dto"
	"ridewallet/internal/core/ports"
	"ridewallet/pkg/apperror"
	"ridewallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RideHandler handles ride settlement endpoints called by the rides service.
type RideHandler struct {
	ledgerSvc ports.LedgerService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(ledgerSvc ports.LedgerService) *RideHandler {
	return &RideHandler{ledgerSvc: ledgerSvc}
}

// Payment handles POST /api/v1/rides/payment.
func (h *RideHandler) Payment(c *gin.Context) {
	var req dto.RidePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	riderID, err := uuid.Parse(req.RiderID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid rider_id"))
		return
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid driver_id"))
		return
	}

	txn, err := h.ledgerSvc.RidePayment(c.Request.Context(), ports.RidePaymentRequest{
		RiderID:  riderID,
		DriverID: driverID,
		Amount:   req.Amount,
		RideRef:  req.RideRef,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}

// Refund handles POST /api/v1/rides/refund.
func (h *RideHandler) Refund(c *gin.Context) {
	ownerID, _, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.ledgerSvc.Refund(c.Request.Context(), ports.RefundRequest{
		OwnerID:           ownerID,
		OriginalReference: req.OriginalReference,
		Amount:            req.Amount,
		Reason:            req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}
