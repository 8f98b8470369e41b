package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ridewallet/internal/core/domain"
	"ridewallet/internal/core/ports"
	"ridewallet/internal/core/ports/mocks"
	"ridewallet/internal/service"
	"ridewallet/pkg/apperror"
)

type routerTestDeps struct {
	ledger    *mocks.MockLedgerService
	reconcile *mocks.MockReconcileService
	query     *mocks.MockQueryService
	tokenSvc  *service.JWTTokenService
	router    *gin.Engine
}

func setupRouterTest(t *testing.T) *routerTestDeps {
	t.Helper()
	ctrl := gomock.NewController(t)

	d := &routerTestDeps{
		ledger:    mocks.NewMockLedgerService(ctrl),
		reconcile: mocks.NewMockReconcileService(ctrl),
		query:     mocks.NewMockQueryService(ctrl),
		tokenSvc:  service.NewJWTTokenService("test_jwt_secret", time.Hour, "ridewallet-test"),
	}
	d.router = SetupRouter(RouterDeps{
		LedgerSvc:    d.ledger,
		ReconcileSvc: d.reconcile,
		QuerySvc:     d.query,
		TokenSvc:     d.tokenSvc,
		Logger:       zerolog.Nop(),
	})
	return d
}

func (d *routerTestDeps) authHeader(t *testing.T, ownerID uuid.UUID, ownerType domain.OwnerType) string {
	t.Helper()
	token, _, err := d.tokenSvc.Generate(ownerID, ownerType)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(router *gin.Engine, method, path, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestRouter_MissingToken(t *testing.T) {
	d := setupRouterTest(t)

	w := doJSON(d.router, http.MethodGet, "/api/v1/wallet", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "SEC_002", envelope["error_code"])
}

func TestRouter_MalformedToken(t *testing.T) {
	d := setupRouterTest(t)

	w := doJSON(d.router, http.MethodGet, "/api/v1/wallet", "Bearer not-a-jwt", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "SEC_002", envelope["error_code"])
}

func TestGetWallet_Success(t *testing.T) {
	d := setupRouterTest(t)
	ownerID := uuid.New()
	wallet := domain.NewWallet(ownerID, domain.OwnerTypeCustomer)
	wallet.Balance = 700

	d.query.EXPECT().
		GetWallet(gomock.Any(), ownerID, domain.OwnerTypeCustomer).
		Return(wallet, nil)

	w := doJSON(d.router, http.MethodGet, "/api/v1/wallet", d.authHeader(t, ownerID, domain.OwnerTypeCustomer), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, ownerID.String(), data["owner_id"])
	assert.Equal(t, float64(700), data["balance"])
}

func TestAddMoney_Success(t *testing.T) {
	d := setupRouterTest(t)
	ownerID := uuid.New()

	d.ledger.EXPECT().
		AddMoney(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.AddMoneyRequest) (*domain.Transaction, error) {
			assert.Equal(t, ownerID, req.OwnerID)
			assert.Equal(t, int64(500), req.Amount)
			assert.Equal(t, domain.PaymentMethodUPI, req.Method)
			return &domain.Transaction{
				ID:              uuid.New(),
				Type:            domain.TransactionTypeAddMoney,
				Amount:          500,
				BalanceAfter:    700,
				ReferenceNumber: "WAL-1700000000000-abcd1234",
				Status:          domain.TransactionStatusCompleted,
				CreatedAt:       time.Now().UTC(),
			}, nil
		})

	w := doJSON(d.router, http.MethodPost, "/api/v1/wallet/add",
		d.authHeader(t, ownerID, domain.OwnerTypeCustomer),
		gin.H{"amount": 500, "payment_method": "upi"})

	assert.Equal(t, http.StatusCreated, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(700), data["balance_after"])
	assert.Equal(t, "WAL-1700000000000-abcd1234", data["reference_number"])
}

func TestAddMoney_ValidationRejectsBadMethod(t *testing.T) {
	d := setupRouterTest(t)

	w := doJSON(d.router, http.MethodPost, "/api/v1/wallet/add",
		d.authHeader(t, uuid.New(), domain.OwnerTypeCustomer),
		gin.H{"amount": 500, "payment_method": "cash"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "VAL_001", envelope["error_code"])
}

func TestAddMoney_InsufficientBoundsPassthrough(t *testing.T) {
	d := setupRouterTest(t)

	d.ledger.EXPECT().
		AddMoney(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInvalidAmount(1, 100000))

	w := doJSON(d.router, http.MethodPost, "/api/v1/wallet/add",
		d.authHeader(t, uuid.New(), domain.OwnerTypeCustomer),
		gin.H{"amount": 9999999, "payment_method": "upi"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "PAY_002", envelope["error_code"])
}

func TestListTransactions_PassesQueryParams(t *testing.T) {
	d := setupRouterTest(t)
	ownerID := uuid.New()

	d.query.EXPECT().
		ListTransactions(gomock.Any(), ownerID, ports.ListQuery{Type: "add_money", Limit: 5, Offset: 10}).
		Return(&ports.TransactionPage{Transactions: []domain.Transaction{}, Limit: 5, Offset: 10}, nil)

	w := doJSON(d.router, http.MethodGet, "/api/v1/wallet/transactions?type=add_money&limit=5&offset=10",
		d.authHeader(t, ownerID, domain.OwnerTypeCustomer), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(5), data["limit"])
	assert.Equal(t, float64(10), data["offset"])
}

func TestListTransactions_EchoesEffectiveLimit(t *testing.T) {
	d := setupRouterTest(t)
	ownerID := uuid.New()

	// The query service owns defaulting and clamping; the handler reports
	// whatever the page carries.
	d.query.EXPECT().
		ListTransactions(gomock.Any(), ownerID, ports.ListQuery{Limit: 500}).
		Return(&ports.TransactionPage{Transactions: []domain.Transaction{}, Limit: 100}, nil)

	w := doJSON(d.router, http.MethodGet, "/api/v1/wallet/transactions?limit=500",
		d.authHeader(t, ownerID, domain.OwnerTypeCustomer), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(100), data["limit"])
}

func TestGetSummary_Success(t *testing.T) {
	d := setupRouterTest(t)
	ownerID := uuid.New()

	d.query.EXPECT().
		GetSummary(gomock.Any(), ownerID).
		Return(&ports.WalletSummary{TotalTransactions: 3, Completed: 2, TotalCredited: 700}, nil)

	w := doJSON(d.router, http.MethodGet, "/api/v1/wallet/summary",
		d.authHeader(t, ownerID, domain.OwnerTypeCustomer), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(3), data["total_transactions"])
	assert.Equal(t, float64(700), data["total_credited"])
}

func TestRidePayment_Success(t *testing.T) {
	d := setupRouterTest(t)
	riderID := uuid.New()
	driverID := uuid.New()

	d.ledger.EXPECT().
		RidePayment(gomock.Any(), ports.RidePaymentRequest{
			RiderID:  riderID,
			DriverID: driverID,
			Amount:   300,
			RideRef:  "r-20260831-01",
		}).
		Return(&domain.Transaction{
			ID:              uuid.New(),
			Type:            domain.TransactionTypeRidePayment,
			Amount:          300,
			ReferenceNumber: "RIDE-r-20260831-01",
			Status:          domain.TransactionStatusCompleted,
		}, nil)

	w := doJSON(d.router, http.MethodPost, "/api/v1/rides/payment",
		d.authHeader(t, riderID, domain.OwnerTypeCustomer),
		gin.H{"rider_id": riderID.String(), "driver_id": driverID.String(), "amount": 300, "ride_ref": "r-20260831-01"})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRidePayment_InsufficientFunds(t *testing.T) {
	d := setupRouterTest(t)
	riderID := uuid.New()
	driverID := uuid.New()

	d.ledger.EXPECT().
		RidePayment(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInsufficientFunds())

	w := doJSON(d.router, http.MethodPost, "/api/v1/rides/payment",
		d.authHeader(t, riderID, domain.OwnerTypeCustomer),
		gin.H{"rider_id": riderID.String(), "driver_id": driverID.String(), "amount": 800, "ride_ref": "r-1"})

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "PAY_001", envelope["error_code"])
}

func TestRefund_Success(t *testing.T) {
	d := setupRouterTest(t)
	ownerID := uuid.New()

	d.ledger.EXPECT().
		Refund(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.RefundRequest) (*domain.Transaction, error) {
			assert.Equal(t, ownerID, req.OwnerID)
			assert.Equal(t, "RIDE-r-1", req.OriginalReference)
			assert.Nil(t, req.Amount)
			return &domain.Transaction{
				Type:            domain.TransactionTypeRefund,
				Amount:          300,
				ReferenceNumber: "REFUND-RIDE-r-1",
				Status:          domain.TransactionStatusCompleted,
			}, nil
		})

	w := doJSON(d.router, http.MethodPost, "/api/v1/rides/refund",
		d.authHeader(t, ownerID, domain.OwnerTypeCustomer),
		gin.H{"original_reference": "RIDE-r-1", "reason": "ride cancelled"})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateOrder_Success(t *testing.T) {
	d := setupRouterTest(t)
	ownerID := uuid.New()

	d.reconcile.EXPECT().
		CreateTopupOrder(gomock.Any(), ports.TopupOrderRequest{
			OwnerID:   ownerID,
			OwnerType: domain.OwnerTypeCustomer,
			Amount:    500,
			Method:    domain.PaymentMethodCard,
		}).
		Return(&domain.PaymentOrder{
			ID:             uuid.New(),
			GatewayOrderID: "order_NXhT21",
			Amount:         500,
			Method:         domain.PaymentMethodCard,
			Status:         domain.PaymentOrderStatusCreated,
		}, nil)

	w := doJSON(d.router, http.MethodPost, "/api/v1/payments/order",
		d.authHeader(t, ownerID, domain.OwnerTypeCustomer),
		gin.H{"amount": 500, "payment_method": "card"})

	assert.Equal(t, http.StatusCreated, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "order_NXhT21", data["gateway_order_id"])
}

func TestVerifyPayment_SignatureMismatch(t *testing.T) {
	d := setupRouterTest(t)

	d.reconcile.EXPECT().
		VerifyPayment(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrSignatureMismatch())

	w := doJSON(d.router, http.MethodPost, "/api/v1/payments/verify",
		d.authHeader(t, uuid.New(), domain.OwnerTypeCustomer),
		gin.H{"gateway_order_id": "order_1", "gateway_payment_id": "pay_1", "gateway_signature": "bad"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "SEC_001", envelope["error_code"])
}

func TestWebhook_AcksWithoutJWT(t *testing.T) {
	d := setupRouterTest(t)
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`)
	mac := hmac.New(sha256.New, []byte("webhook_secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	d.reconcile.EXPECT().
		HandleWebhook(gomock.Any(), body, signature).
		Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set(HeaderWebhookSignature, signature)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
}

func TestWebhook_SignatureMismatchIs403(t *testing.T) {
	d := setupRouterTest(t)

	d.reconcile.EXPECT().
		HandleWebhook(gomock.Any(), gomock.Any(), "forged").
		Return(apperror.ErrSignatureMismatch())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(HeaderWebhookSignature, "forged")
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth_NoCheckersIsHealthy(t *testing.T) {
	d := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}
