package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("PAY_001", "Insufficient wallet balance", http.StatusPaymentRequired)
	assert.Equal(t, "[PAY_001] Insufficient wallet balance", e.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, errors.New("pool closed"))
	assert.Equal(t, "[SYS_001] Internal server error: pool closed", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	e := ErrGatewayUnavailable(cause)

	assert.ErrorIs(t, e, cause)

	var appErr *AppError
	require.ErrorAs(t, error(e), &appErr)
	assert.Equal(t, "SYS_002", appErr.Code)
}

func TestErrorCatalogStatuses(t *testing.T) {
	cases := []struct {
		err    *AppError
		code   string
		status int
	}{
		{ErrSignatureMismatch(), "SEC_001", http.StatusForbidden},
		{ErrInvalidToken(), "SEC_002", http.StatusUnauthorized},
		{ErrInsufficientFunds(), "PAY_001", http.StatusPaymentRequired},
		{ErrInvalidAmount(1, 100000), "PAY_002", http.StatusBadRequest},
		{ErrNotFound("Wallet"), "PAY_003", http.StatusNotFound},
		{ErrRefundNotAllowed(), "PAY_004", http.StatusBadRequest},
		{ErrRefundAmountExceedsOriginal(), "PAY_005", http.StatusBadRequest},
		{ErrPayoutExceedsPending(), "PAY_006", http.StatusConflict},
		{ErrWalletNotActive(), "WALLET_001", http.StatusForbidden},
		{ErrRateLimitExceeded(), "RATE_001", http.StatusTooManyRequests},
		{Validation("limit must not be negative"), "VAL_001", http.StatusBadRequest},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code)
		assert.Equal(t, tc.status, tc.err.HTTPStatus)
	}
}

func TestErrInvalidAmount_MessageIncludesBounds(t *testing.T) {
	e := ErrInvalidAmount(1, 100000)
	assert.Contains(t, e.Message, "1")
	assert.Contains(t, e.Message, "100000")
}
