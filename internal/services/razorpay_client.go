package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ridehub/ridehub-backend/internal/config"
	"github.com/sirupsen/logrus"
)

// PaymentGateway is the boundary to the external payment provider. Amounts
// cross this boundary in paise; everything inside the services is rupees.
type PaymentGateway interface {
	CreateOrder(amountPaise int64, currency, receipt string, notes map[string]string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
	Refund(paymentID string, amountPaise int64, notes map[string]string) (string, error)
}

// RazorpayClient implements PaymentGateway against the Razorpay REST API
type RazorpayClient struct {
	config *config.PaymentConfig
	logger *logrus.Logger
	client *http.Client
}

// NewRazorpayClient creates a new RazorpayClient
func NewRazorpayClient(cfg *config.PaymentConfig, logger *logrus.Logger) *RazorpayClient {
	return &RazorpayClient{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// razorpayOrderRequest is the order creation payload
type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"` // paise
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// razorpayOrderResponse is the order creation response
type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// razorpayRefundRequest is the refund creation payload
type razorpayRefundRequest struct {
	Amount int64             `json:"amount"` // paise
	Notes  map[string]string `json:"notes,omitempty"`
}

// razorpayRefundResponse is the refund creation response
type razorpayRefundResponse struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// razorpayErrorResponse wraps gateway error payloads
type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder creates a payment order and returns the gateway order ID
func (c *RazorpayClient) CreateOrder(amountPaise int64, currency, receipt string, notes map[string]string) (string, error) {
	payload := razorpayOrderRequest{
		Amount:   amountPaise,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	}

	var resp razorpayOrderResponse
	if err := c.post("/orders", payload, &resp); err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"order_id": resp.ID,
		"amount":   resp.Amount,
		"receipt":  receipt,
	}).Info("Payment order created")

	return resp.ID, nil
}

// VerifySignature checks the gateway callback signature: an HMAC-SHA256 of
// "orderID|paymentID" keyed with the secret.
func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.config.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Refund issues a full or partial refund against a captured payment
func (c *RazorpayClient) Refund(paymentID string, amountPaise int64, notes map[string]string) (string, error) {
	payload := razorpayRefundRequest{
		Amount: amountPaise,
		Notes:  notes,
	}

	var resp razorpayRefundResponse
	if err := c.post("/payments/"+paymentID+"/refund", payload, &resp); err != nil {
		return "", fmt.Errorf("failed to refund payment %s: %w", paymentID, err)
	}

	c.logger.WithFields(logrus.Fields{
		"refund_id":  resp.ID,
		"payment_id": paymentID,
		"amount":     amountPaise,
	}).Info("Refund issued")

	return resp.ID, nil
}

// post sends an authenticated JSON request and decodes the response
func (c *RazorpayClient) post(path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.config.KeyID, c.config.KeySecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var gatewayErr razorpayErrorResponse
		if err := json.Unmarshal(respBody, &gatewayErr); err == nil && gatewayErr.Error.Description != "" {
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, gatewayErr.Error.Description)
		}
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
