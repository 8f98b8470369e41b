package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridewallet/config"
	"ridewallet/pkg/apperror"
)

func testGatewayConfig(baseURL string) config.GatewayConfig {
	return config.GatewayConfig{
		BaseURL:   baseURL,
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		Currency:  "INR",
		Timeout:   2 * time.Second,
	}
}

func TestClient_CreateOrder_Success(t *testing.T) {
	var gotReq createOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "request must carry basic auth")
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_NXhT21","amount":500,"currency":"INR"}`))
	}))
	defer srv.Close()

	client := NewClient(testGatewayConfig(srv.URL), nil, zerolog.Nop())

	orderID, err := client.CreateOrder(context.Background(), 500, "rcpt-42")

	require.NoError(t, err)
	assert.Equal(t, "order_NXhT21", orderID)
	assert.Equal(t, int64(500), gotReq.Amount)
	assert.Equal(t, "INR", gotReq.Currency)
	assert.Equal(t, "rcpt-42", gotReq.Receipt)
}

func TestClient_CreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"description":"invalid key"}}`))
	}))
	defer srv.Close()

	client := NewClient(testGatewayConfig(srv.URL), nil, zerolog.Nop())

	_, err := client.CreateOrder(context.Background(), 500, "rcpt-42")

	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SYS_002", appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
}

func TestClient_CreateOrder_EmptyOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(testGatewayConfig(srv.URL), nil, zerolog.Nop())

	_, err := client.CreateOrder(context.Background(), 500, "rcpt-42")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SYS_002", appErr.Code)
}

func TestClient_CreateOrder_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	client := NewClient(testGatewayConfig(srv.URL), nil, zerolog.Nop())

	_, err := client.CreateOrder(context.Background(), 500, "rcpt-42")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SYS_002", appErr.Code)
}
