// Package payments talks to the external card-payment gateway.
//
// Flow: an order is registered with the gateway before the client pays;
// after the client reports completion, the gateway-issued signature over
// {orderID, paymentID} is verified against the shared key secret. Only a
// verified, not-previously-seen payment id may credit a wallet.
package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type Order struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

type createOrderRequest struct {
	AmountMinor int64             `json:"amount"` // minor units
	Currency    string            `json:"currency"`
	Receipt     string            `json:"receipt"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// CreateOrder registers a payment order with the gateway. amount is in major
// units and converted to minor units on the wire.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string, notes map[string]string) (*Order, error) {
	body, err := json.Marshal(createOrderRequest{
		AmountMinor: amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:    currency,
		Receipt:     receipt,
		Notes:       notes,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/orders", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment gateway unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payment gateway returned %d: %s", resp.StatusCode, string(b))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("payment gateway returned empty order id")
	}
	return &order, nil
}

// VerifySignature checks the gateway signature over "orderID|paymentID".
// The gateway signs the pair with HMAC-SHA256 using the key secret and
// hex-encodes the digest.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmacSHA256([]byte(c.keySecret), []byte(orderID+"|"+paymentID))
	expected := hex.EncodeToString(mac)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign produces the signature the gateway would emit for an order/payment
// pair. Used by tests and sandbox tooling.
func (c *Client) Sign(orderID, paymentID string) string {
	return hex.EncodeToString(hmacSHA256([]byte(c.keySecret), []byte(orderID+"|"+paymentID)))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
