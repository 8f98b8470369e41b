package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Security (SEC) ----

func ErrSignatureMismatch() *AppError {
	return New("SEC_001", "Payment signature verification failed", http.StatusForbidden)
}

func ErrInvalidToken() *AppError {
	return New("SEC_002", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Ledger Business Logic (PAY) ----

func ErrInsufficientFunds() *AppError {
	return New("PAY_001", "Insufficient wallet balance", http.StatusPaymentRequired)
}

func ErrInvalidAmount(min, max int64) *AppError {
	return New("PAY_002", fmt.Sprintf("Amount must be between %d and %d", min, max), http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrRefundNotAllowed() *AppError {
	return New("PAY_004", "Original transaction not eligible for refund", http.StatusBadRequest)
}

func ErrRefundAmountExceedsOriginal() *AppError {
	return New("PAY_005", "Refund amount exceeds original transaction amount", http.StatusBadRequest)
}

func ErrPayoutExceedsPending() *AppError {
	return New("PAY_006", "Payout amount exceeds pending payouts", http.StatusConflict)
}

// ---- Wallet State (WALLET) ----

func ErrWalletNotActive() *AppError {
	return New("WALLET_001", "Wallet is not active", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrGatewayUnavailable(err error) *AppError {
	return Wrap("SYS_002", "Payment gateway unavailable", http.StatusBadGateway, err)
}

// Validation returns a VAL_001 validation error with a caller-fixable message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
