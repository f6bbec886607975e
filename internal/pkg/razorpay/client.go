package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds Razorpay API credentials
type Config struct {
	KeyID         string // public key, returned to checkout clients
	KeySecret     string // used for API auth and payment signature verification
	WebhookSecret string // used for webhook signature verification; empty disables checking
	BaseURL       string
	Timeout       time.Duration
}

// Client is a minimal Razorpay Orders API client
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a Razorpay client with a bounded request timeout
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.razorpay.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: timeout},
	}
}

// KeyID returns the public key id for checkout clients
func (c *Client) KeyID() string {
	return c.config.KeyID
}

// CreateOrderRequest represents an order creation request
type CreateOrderRequest struct {
	AmountMinor int64             // amount in minor units (paise)
	Currency    string            // ISO currency code
	Receipt     string            // internal order identifier
	Notes       map[string]string // free-form metadata echoed back by the gateway
}

// Order represents a gateway order
type Order struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder creates an order at the gateway and returns its handle.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}
	if strings.TrimSpace(c.config.KeyID) == "" || strings.TrimSpace(c.config.KeySecret) == "" {
		return nil, fmt.Errorf("razorpay config error: api keys are empty")
	}

	body, err := json.Marshal(map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to encode order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.config.BaseURL, "/")+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.config.KeyID, c.config.KeySecret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay: order request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay: order creation rejected (%s): %s",
				apiErr.Error.Code, apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay: order creation failed with status %d", resp.StatusCode)
	}

	var order Order
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("razorpay: failed to decode order response: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay: order response has no id")
	}
	return &order, nil
}
