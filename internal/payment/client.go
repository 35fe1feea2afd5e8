package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arnoldhere/RetailIQ-sub000/internal/fault"
)

// Client talks to a Razorpay-style REST processor: basic-auth key pair,
// orders opened in minor units, refunds addressed by payment id.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	currency  string
	http      *http.Client
}

func NewClient(keyID, keySecret, baseURL, currency string) *Client {
	return &Client{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		currency:  currency,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*GatewayOrder, error) {
	body := map[string]any{
		"amount":   amountMinor,
		"currency": c.currency,
		"receipt":  receipt,
	}

	var out GatewayOrder
	if err := c.post(ctx, "/v1/orders", body, &out); err != nil {
		return nil, fault.Gateway(err, "create gateway order for receipt %s", receipt)
	}
	return &out, nil
}

func (c *Client) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return VerifySignature(c.keySecret, gatewayOrderID, gatewayPaymentID, signature)
}

func (c *Client) Refund(ctx context.Context, gatewayPaymentID string, amountMinor int64) (*Refund, error) {
	body := map[string]any{
		"amount": amountMinor,
	}

	var out Refund
	path := fmt.Sprintf("/v1/payments/%s/refund", gatewayPaymentID)
	if err := c.post(ctx, path, body, &out); err != nil {
		return nil, fault.Gateway(err, "refund payment %s", gatewayPaymentID)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, detail)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
