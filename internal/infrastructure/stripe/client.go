package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds Stripe API configuration
type Config struct {
	SecretKey  string // Secret API key (sk_test_... / sk_live_...)
	BaseURL    string // https://api.stripe.com, overridable for tests
	SuccessURL string // Return URL after a completed payment
	CancelURL  string // Return URL after an abandoned payment
	Currency   string // ISO currency code, e.g. "usd"
}

// Client is the Stripe Checkout API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// LineItem is one priced entry submitted to Stripe. A non-empty
// Interval makes it a recurring subscription price; empty means a
// one-time charge.
type LineItem struct {
	Name        string
	Description string
	AmountCents int64
	Interval    string // "month", "year" or empty
	Quantity    int
}

// SessionRequest describes the Checkout Session to create
type SessionRequest struct {
	OrderID       string // our order ID, doubles as the idempotency key
	Mode          string // "payment" or "subscription"
	CustomerEmail string
	LineItems     []LineItem
}

// Session represents a created Checkout Session
type Session struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// checkoutSessionResponse represents the Stripe API response
type checkoutSessionResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
	Error     *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a new Stripe client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateCheckoutSession creates a hosted Checkout Session and returns
// its redirect URL. The request is form-encoded per Stripe's API and
// sent with an Idempotency-Key so provider-side retries are safe.
func (c *Client) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	endpoint := "/v1/checkout/sessions"

	form := url.Values{}
	form.Set("mode", req.Mode)
	form.Set("client_reference_id", req.OrderID)
	form.Set("success_url", c.config.SuccessURL)
	form.Set("cancel_url", c.config.CancelURL)
	if req.CustomerEmail != "" {
		form.Set("customer_email", req.CustomerEmail)
	}

	for i, item := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		form.Set(prefix+"[quantity]", strconv.Itoa(qty))
		form.Set(prefix+"[price_data][currency]", c.config.Currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.AmountCents, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			form.Set(prefix+"[price_data][product_data][description]", item.Description)
		}
		if item.Interval != "" {
			form.Set(prefix+"[price_data][recurring][interval]", item.Interval)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	httpReq.Header.Set("Idempotency-Key", "checkout-"+req.OrderID)

	log.Printf("[Stripe] Creating checkout session: order=%s, mode=%s, items=%d",
		req.OrderID, req.Mode, len(req.LineItems))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp checkoutSessionResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if apiResp.Error != nil {
			return nil, fmt.Errorf("stripe API error: %s (%s)", apiResp.Error.Message, apiResp.Error.Type)
		}
		return nil, fmt.Errorf("stripe API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	expiresAt := time.Unix(apiResp.ExpiresAt, 0).UTC()
	if apiResp.ExpiresAt == 0 {
		// Checkout sessions expire after 24h by default
		expiresAt = time.Now().UTC().Add(24 * time.Hour)
	}

	return &Session{
		ID:        apiResp.ID,
		URL:       apiResp.URL,
		ExpiresAt: expiresAt,
	}, nil
}
