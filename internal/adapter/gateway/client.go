package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ridewallet/config"
	"ridewallet/pkg/apperror"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.GatewayClient against a Razorpay-style orders API.
// Authentication is HTTP basic auth with the key ID and key secret.
type Client struct {
	cfg        config.GatewayConfig
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a gateway client. If httpClient is nil a default client
// with the configured timeout is used.
func NewClient(cfg config.GatewayConfig, httpClient HTTPClient, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		log:        log,
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers a payment order with the gateway and returns the
// gateway's order ID. The client later completes checkout against this ID.
func (c *Client) CreateOrder(ctx context.Context, amount int64, receipt string) (string, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amount,
		Currency: c.cfg.Currency,
		Receipt:  receipt,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("Gateway order request failed")
		return "", apperror.ErrGatewayUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("body", string(respBody)).
			Msg("Gateway order request rejected")
		return "", apperror.ErrGatewayUnavailable(fmt.Errorf("gateway returned status %d", resp.StatusCode))
	}

	var orderResp createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return "", apperror.ErrGatewayUnavailable(fmt.Errorf("decoding order response: %w", err))
	}
	if orderResp.ID == "" {
		return "", apperror.ErrGatewayUnavailable(fmt.Errorf("gateway returned empty order id"))
	}

	c.log.Info().
		Str("gateway_order_id", orderResp.ID).
		Int64("amount", amount).
		Str("receipt", receipt).
		Msg("Gateway order created")

	return orderResp.ID, nil
}
