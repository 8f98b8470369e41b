package handler

import (
	"ridewallet/internal/adapter/http/dto"
	"ridewallet/internal/adapter/http/middleware"
	"ridewallet/internal/core/domain"
	"ridewallet/internal/core/ports"
	"ridewallet/pkg/apperror"
	"ridewallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
	querySvc  ports.QueryService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService, querySvc ports.QueryService) *WalletHandler {
	return &WalletHandler{
		ledgerSvc: ledgerSvc,
		querySvc:  querySvc,
	}
}

// ownerFromContext extracts the authenticated owner identity.
func ownerFromContext(c *gin.Context) (uuid.UUID, domain.OwnerType, bool) {
	ownerID, ok := c.Get(middleware.CtxOwnerID)
	if !ok {
		return uuid.Nil, "", false
	}
	ownerType, ok := c.Get(middleware.CtxOwnerType)
	if !ok {
		return uuid.Nil, "", false
	}
	return ownerID.(uuid.UUID), ownerType.(domain.OwnerType), true
}

// GetWallet handles GET /api/v1/wallet.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	ownerID, ownerType, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.querySvc.GetWallet(c.Request.Context(), ownerID, ownerType)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromWallet(wallet))
}

// AddMoney handles POST /api/v1/wallet/add.
func (h *WalletHandler) AddMoney(c *gin.Context) {
	ownerID, _, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.AddMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.ledgerSvc.AddMoney(c.Request.Context(), ports.AddMoneyRequest{
		OwnerID:     ownerID,
		Amount:      req.Amount,
		Method:      domain.PaymentMethod(req.Method),
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}

// ListTransactions handles GET /api/v1/wallet/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	ownerID, _, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var query struct {
		Type   string `form:"type"`
		Status string `form:"status"`
		Limit  int    `form:"limit"`
		Offset int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	page, err := h.querySvc.ListTransactions(c.Request.Context(), ownerID, ports.ListQuery{
		Type:   query.Type,
		Status: query.Status,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransactionList(page.Transactions, page.Total, page.Limit, page.Offset))
}

// GetSummary handles GET /api/v1/wallet/summary.
func (h *WalletHandler) GetSummary(c *gin.Context) {
	ownerID, _, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	summary, err := h.querySvc.GetSummary(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromSummary(summary))
}

// Bonus handles POST /api/v1/wallet/bonus.
func (h *WalletHandler) Bonus(c *gin.Context) {
	ownerID, _, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.BonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.ledgerSvc.Bonus(c.Request.Context(), ports.BonusRequest{
		OwnerID:     ownerID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}

// Payout handles POST /api/v1/wallet/payout.
func (h *WalletHandler) Payout(c *gin.Context) {
	ownerID, _, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.ledgerSvc.Payout(c.Request.Context(), ports.PayoutRequest{
		DriverID: ownerID,
		Amount:   req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}
