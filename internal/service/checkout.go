package service

import (
	"context"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stridelab/stridefit/internal/config"
	"github.com/stridelab/stridefit/internal/domain"
	"github.com/stridelab/stridefit/internal/infrastructure/stripe"
)

// CheckoutSession represents a created payment-provider session
type CheckoutSession struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// CheckoutLineItem is one priced entry handed to the provider
type CheckoutLineItem struct {
	Name        string
	Description string
	AmountCents int64
	Interval    domain.Interval
}

// CheckoutParams describes the session to create
type CheckoutParams struct {
	OrderID       string
	Mode          string // payment or subscription
	CustomerEmail string
	LineItems     []CheckoutLineItem
}

// CheckoutProvider defines the interface for payment gateway integrations
type CheckoutProvider interface {
	// CreateSession creates a hosted checkout session and returns its redirect URL
	CreateSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
}

// MockCheckoutClient is a mock implementation of CheckoutProvider for development
type MockCheckoutClient struct{}

// StripeClientAdapter adapts the stripe.Client to CheckoutProvider interface
type StripeClientAdapter struct {
	client *stripe.Client
}

// NewCheckoutProvider returns the appropriate CheckoutProvider based on config.
// If no Stripe secret key is configured, returns a mock client for development.
func NewCheckoutProvider(cfg config.StripeConfig) CheckoutProvider {
	if cfg.SecretKey == "" {
		log.Println("[Checkout] Using mock checkout client (no Stripe credentials configured)")
		return &MockCheckoutClient{}
	}

	log.Printf("[Checkout] Using Stripe checkout client (base: %s)", cfg.BaseURL)
	client := stripe.NewClient(stripe.Config{
		SecretKey:  cfg.SecretKey,
		BaseURL:    cfg.BaseURL,
		SuccessURL: cfg.SuccessURL,
		CancelURL:  cfg.CancelURL,
		Currency:   cfg.Currency,
	})

	return &StripeClientAdapter{client: client}
}

// CreateSession generates a mock checkout session
func (m *MockCheckoutClient) CreateSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	sessionID := "cs_mock_" + ulid.Make().String()

	return &CheckoutSession{
		ID:        sessionID,
		URL:       "https://checkout.stridefit.local/mock/" + sessionID,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}, nil
}

// CreateSession creates a real Checkout Session via the Stripe API
func (a *StripeClientAdapter) CreateSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	items := make([]stripe.LineItem, 0, len(params.LineItems))
	for _, item := range params.LineItems {
		items = append(items, stripe.LineItem{
			Name:        item.Name,
			Description: item.Description,
			AmountCents: item.AmountCents,
			Interval:    string(item.Interval),
			Quantity:    1,
		})
	}

	session, err := a.client.CreateCheckoutSession(ctx, stripe.SessionRequest{
		OrderID:       params.OrderID,
		Mode:          params.Mode,
		CustomerEmail: params.CustomerEmail,
		LineItems:     items,
	})
	if err != nil {
		log.Printf("[Checkout] Stripe API error: %v", err)
		return nil, err
	}

	return &CheckoutSession{
		ID:        session.ID,
		URL:       session.URL,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
