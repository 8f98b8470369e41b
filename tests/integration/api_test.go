package integration

import (
	"bytes"
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

	"ridewallet/config"
	"ridewallet/internal/adapter/http/handler"
	"ridewallet/internal/core/domain"
	"ridewallet/internal/core/ports"
	"ridewallet/internal/service"
)

const (
	testKeySecret     = "itest_key_secret"
	testWebhookSecret = "itest_webhook_secret"
)

// testEnv wires the real services against the in-memory adapters behind the
// real router, so requests travel the full HTTP path.
type testEnv struct {
	store    *memStore
	ledger   ports.LedgerService
	sigSvc   *service.HMACSignatureService
	tokenSvc *service.JWTTokenService
	router   *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	store := newMemStore()

	walletRepo := &memWalletRepo{store: store}
	txRepo := &memTransactionRepo{store: store}
	orderRepo := &memPaymentOrderRepo{store: store}
	transactor := &memTransactor{store: store}
	refCache := newMemReferenceCache()

	gatewayCfg := config.GatewayConfig{
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
		Currency:      "INR",
	}

	sigSvc := service.NewHMACSignatureService()
	tokenSvc := service.NewJWTTokenService("itest_jwt_secret", time.Hour, "ridewallet-test")

	ledgerSvc := service.NewLedgerService(walletRepo, txRepo, refCache, transactor, 100, 50000, log)
	reconcileSvc := service.NewReconcileService(orderRepo, ledgerSvc, &stubGateway{}, sigSvc, gatewayCfg, 100, 50000, log)
	querySvc := service.NewQueryService(walletRepo, txRepo, ledgerSvc, log)

	router := handler.SetupRouter(handler.RouterDeps{
		LedgerSvc:    ledgerSvc,
		ReconcileSvc: reconcileSvc,
		QuerySvc:     querySvc,
		TokenSvc:     tokenSvc,
		Logger:       log,
	})

	return &testEnv{
		store:    store,
		ledger:   ledgerSvc,
		sigSvc:   sigSvc,
		tokenSvc: tokenSvc,
		router:   router,
	}
}

func (e *testEnv) token(t *testing.T, ownerID uuid.UUID, ownerType domain.OwnerType) string {
	t.Helper()
	token, _, err := e.tokenSvc.Generate(ownerID, ownerType)
	require.NoError(t, err)
	return "Bearer " + token
}

func (e *testEnv) request(method, path, auth string, body any) *httptest.ResponseRecorder {
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
	e.router.ServeHTTP(w, req)
	return w
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestWalletLifecycle(t *testing.T) {
	env := newTestEnv(t)
	riderID := uuid.New()
	auth := env.token(t, riderID, domain.OwnerTypeCustomer)

	// First read lazily creates a zero-balance wallet.
	w := env.request(http.MethodGet, "/api/v1/wallet", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), data(t, w)["balance"])

	// Two top-ups.
	w = env.request(http.MethodPost, "/api/v1/wallet/add", auth, gin.H{"amount": 500, "payment_method": "upi"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(500), data(t, w)["balance_after"])

	w = env.request(http.MethodPost, "/api/v1/wallet/add", auth, gin.H{"amount": 200, "payment_method": "card"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(700), data(t, w)["balance_after"])

	// Balance reflects both credits.
	w = env.request(http.MethodGet, "/api/v1/wallet", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	wallet := data(t, w)
	assert.Equal(t, float64(700), wallet["balance"])
	assert.Equal(t, float64(700), wallet["total_added"])

	// Transaction history, newest first.
	w = env.request(http.MethodGet, "/api/v1/wallet/transactions", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := data(t, w)
	assert.Equal(t, float64(2), page["total"])

	// Summary aggregates completed credits.
	w = env.request(http.MethodGet, "/api/v1/wallet/summary", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := data(t, w)
	assert.Equal(t, float64(2), summary["total_transactions"])
	assert.Equal(t, float64(700), summary["total_credited"])
}

func TestRidePaymentAndRefundFlow(t *testing.T) {
	env := newTestEnv(t)
	riderID := uuid.New()
	driverID := uuid.New()
	riderAuth := env.token(t, riderID, domain.OwnerTypeCustomer)
	driverAuth := env.token(t, driverID, domain.OwnerTypeDriver)

	w := env.request(http.MethodPost, "/api/v1/wallet/add", riderAuth, gin.H{"amount": 700, "payment_method": "upi"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Charge a ride: rider debited, driver credited.
	w = env.request(http.MethodPost, "/api/v1/rides/payment", riderAuth, gin.H{
		"rider_id": riderID.String(), "driver_id": driverID.String(),
		"amount": 300, "ride_ref": "r-100",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(400), data(t, w)["balance_after"])

	w = env.request(http.MethodGet, "/api/v1/wallet", driverAuth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	driverWallet := data(t, w)
	assert.Equal(t, float64(300), driverWallet["balance"])
	assert.Equal(t, float64(300), driverWallet["total_earnings"])
	assert.Equal(t, float64(300), driverWallet["pending_payouts"])

	// A debit past the remaining balance is rejected and changes nothing.
	w = env.request(http.MethodPost, "/api/v1/rides/payment", riderAuth, gin.H{
		"rider_id": riderID.String(), "driver_id": driverID.String(),
		"amount": 800, "ride_ref": "r-101",
	})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	w = env.request(http.MethodGet, "/api/v1/wallet", riderAuth, nil)
	assert.Equal(t, float64(400), data(t, w)["balance"])

	// Refund the ride in full.
	w = env.request(http.MethodPost, "/api/v1/rides/refund", riderAuth, gin.H{
		"original_reference": "RIDE-r-100", "reason": "driver no-show",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(700), data(t, w)["balance_after"])

	// Refunding the same reference again replays the original refund.
	w = env.request(http.MethodPost, "/api/v1/rides/refund", riderAuth, gin.H{
		"original_reference": "RIDE-r-100", "reason": "retry",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(700), data(t, w)["balance_after"])

	w = env.request(http.MethodGet, "/api/v1/wallet", riderAuth, nil)
	assert.Equal(t, float64(700), data(t, w)["balance"])
}

func TestDriverPayoutFlow(t *testing.T) {
	env := newTestEnv(t)
	riderID := uuid.New()
	driverID := uuid.New()
	riderAuth := env.token(t, riderID, domain.OwnerTypeCustomer)
	driverAuth := env.token(t, driverID, domain.OwnerTypeDriver)

	w := env.request(http.MethodPost, "/api/v1/wallet/add", riderAuth, gin.H{"amount": 1000, "payment_method": "upi"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.request(http.MethodPost, "/api/v1/rides/payment", riderAuth, gin.H{
		"rider_id": riderID.String(), "driver_id": driverID.String(),
		"amount": 600, "ride_ref": "r-200",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Payout above the available balance is rejected.
	w = env.request(http.MethodPost, "/api/v1/wallet/payout", driverAuth, gin.H{"amount": 601})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	// Valid payout.
	w = env.request(http.MethodPost, "/api/v1/wallet/payout", driverAuth, gin.H{"amount": 400})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(200), data(t, w)["balance_after"])

	w = env.request(http.MethodGet, "/api/v1/wallet", driverAuth, nil)
	driverWallet := data(t, w)
	assert.Equal(t, float64(200), driverWallet["pending_payouts"])
	assert.Equal(t, float64(600), driverWallet["total_earnings"])
	assert.Equal(t, float64(400), *toFloatPtr(driverWallet["last_payout_amount"]))
}

func toFloatPtr(v any) *float64 {
	if v == nil {
		return nil
	}
	f := v.(float64)
	return &f
}

func TestGatewayTopupVerifyAndWebhookConverge(t *testing.T) {
	env := newTestEnv(t)
	ownerID := uuid.New()
	auth := env.token(t, ownerID, domain.OwnerTypeCustomer)

	// Create the order.
	w := env.request(http.MethodPost, "/api/v1/payments/order", auth, gin.H{"amount": 500, "payment_method": "upi"})
	require.Equal(t, http.StatusCreated, w.Code)
	order := data(t, w)
	gatewayOrderID := order["gateway_order_id"].(string)
	require.NotEmpty(t, gatewayOrderID)

	// Client-side verify credits the wallet.
	paymentID := "pay_itest_1"
	signature := env.sigSvc.Sign(testKeySecret, gatewayOrderID+"|"+paymentID)
	w = env.request(http.MethodPost, "/api/v1/payments/verify", auth, gin.H{
		"gateway_order_id":   gatewayOrderID,
		"gateway_payment_id": paymentID,
		"gateway_signature":  signature,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(500), data(t, w)["balance_after"])

	// The webhook for the same payment replays onto the same transaction.
	body, err := json.Marshal(gin.H{
		"event": "payment.captured",
		"payload": gin.H{"payment": gin.H{"entity": gin.H{
			"id": paymentID, "order_id": gatewayOrderID,
		}}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set(handler.HeaderWebhookSignature, env.sigSvc.Sign(testWebhookSecret, string(body)))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Exactly one credit.
	w = env.request(http.MethodGet, "/api/v1/wallet", auth, nil)
	assert.Equal(t, float64(500), data(t, w)["balance"])

	env.store.mu.RLock()
	assert.Len(t, env.store.txns, 1)
	assert.Equal(t, domain.PaymentOrderStatusCaptured, env.store.ordersByGatewayID[gatewayOrderID].Status)
	env.store.mu.RUnlock()
}

func TestWebhookCaptureForSuspendedWalletStillAcks(t *testing.T) {
	env := newTestEnv(t)
	ownerID := uuid.New()
	auth := env.token(t, ownerID, domain.OwnerTypeCustomer)

	w := env.request(http.MethodPost, "/api/v1/payments/order", auth, gin.H{"amount": 500, "payment_method": "upi"})
	require.Equal(t, http.StatusCreated, w.Code)
	gatewayOrderID := data(t, w)["gateway_order_id"].(string)

	// The wallet gets suspended between order creation and capture.
	env.store.mu.Lock()
	for _, wal := range env.store.walletsByID {
		wal.Status = domain.WalletStatusSuspended
	}
	env.store.mu.Unlock()

	body, err := json.Marshal(gin.H{
		"event": "payment.captured",
		"payload": gin.H{"payment": gin.H{"entity": gin.H{
			"id": "pay_suspended_1", "order_id": gatewayOrderID,
		}}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set(handler.HeaderWebhookSignature, env.sigSvc.Sign(testWebhookSecret, string(body)))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	// A retry cannot un-suspend the wallet, so the gateway gets a 200 and
	// stops redelivering. No credit lands.
	assert.Equal(t, http.StatusOK, rec.Code)
	env.store.mu.RLock()
	assert.Empty(t, env.store.txns)
	env.store.mu.RUnlock()
}

func TestWebhookCaptureWithEmptyPaymentIDStillAcks(t *testing.T) {
	env := newTestEnv(t)
	ownerID := uuid.New()
	auth := env.token(t, ownerID, domain.OwnerTypeCustomer)

	w := env.request(http.MethodPost, "/api/v1/payments/order", auth, gin.H{"amount": 500, "payment_method": "upi"})
	require.Equal(t, http.StatusCreated, w.Code)
	gatewayOrderID := data(t, w)["gateway_order_id"].(string)

	body, err := json.Marshal(gin.H{
		"event": "payment.captured",
		"payload": gin.H{"payment": gin.H{"entity": gin.H{
			"id": "", "order_id": gatewayOrderID,
		}}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set(handler.HeaderWebhookSignature, env.sigSvc.Sign(testWebhookSecret, string(body)))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.store.mu.RLock()
	assert.Empty(t, env.store.txns)
	env.store.mu.RUnlock()
}

func TestWebhookTamperedBodyRejected(t *testing.T) {
	env := newTestEnv(t)

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_x","order_id":"order_x"}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set(handler.HeaderWebhookSignature, env.sigSvc.Sign(testWebhookSecret, `{"event":"payment.captured"}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCrossOwnerRefundRejected(t *testing.T) {
	env := newTestEnv(t)
	riderID := uuid.New()
	driverID := uuid.New()
	otherID := uuid.New()
	riderAuth := env.token(t, riderID, domain.OwnerTypeCustomer)
	otherAuth := env.token(t, otherID, domain.OwnerTypeCustomer)

	w := env.request(http.MethodPost, "/api/v1/wallet/add", riderAuth, gin.H{"amount": 500, "payment_method": "upi"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.request(http.MethodPost, "/api/v1/rides/payment", riderAuth, gin.H{
		"rider_id": riderID.String(), "driver_id": driverID.String(),
		"amount": 300, "ride_ref": "r-300",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Someone else's token cannot refund the rider's ride.
	w = env.request(http.MethodPost, "/api/v1/rides/refund", otherAuth, gin.H{
		"original_reference": "RIDE-r-300",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PAY_004")
}
