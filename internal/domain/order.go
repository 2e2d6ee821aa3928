package domain

import (
	"context"
	"time"
)

// Order status constants
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
	OrderStatusExpired = "expired"
	OrderStatusFailed  = "failed"
)

// OrderItem is one priced line captured at checkout time. Prices are
// re-resolved from the catalog server-side before the order is created,
// so client-supplied amounts never reach the payment provider.
type OrderItem struct {
	LineItemID    string         `bson:"line_item_id,omitempty" json:"line_item_id"`
	ProductID     string         `bson:"product_id,omitempty" json:"product_id"`
	Name          string         `bson:"name,omitempty" json:"name"`
	Description   string         `bson:"description,omitempty" json:"description,omitempty"`
	AmountCents   int64          `bson:"amount_cents,omitempty" json:"amount_cents"`
	Interval      Interval       `bson:"interval,omitempty" json:"interval,omitempty"`
	IsGift        bool           `bson:"is_gift,omitempty" json:"is_gift,omitempty"`
	GiftRecipient *GiftRecipient `bson:"gift_recipient,omitempty" json:"gift_recipient,omitempty"`
}

// Order represents one checkout handoff to the payment provider
type Order struct {
	ID                string      `bson:"_id,omitempty" json:"id"`
	CartSessionID     string      `bson:"cart_session_id,omitempty" json:"cart_session_id"`
	UserID            string      `bson:"user_id,omitempty" json:"user_id"`
	Email             string      `bson:"email,omitempty" json:"email"`
	Items             []OrderItem `bson:"items,omitempty" json:"items"`
	AmountCents       int64       `bson:"amount_cents,omitempty" json:"amount_cents"`
	Mode              string      `bson:"mode,omitempty" json:"mode"`     // payment, subscription
	Status            string      `bson:"status,omitempty" json:"status"` // pending, paid, expired, failed
	ProviderSessionID string      `bson:"provider_session_id,omitempty" json:"provider_session_id"`
	CreatedAt         time.Time   `bson:"created_at,omitempty" json:"created_at"`
	UpdatedAt         time.Time   `bson:"updated_at,omitempty" json:"updated_at"`
}

// OrderRepository defines operations for managing orders
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByProviderSessionID(ctx context.Context, sessionID string) (*Order, error)
	GetPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*Order, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	Update(ctx context.Context, order *Order) error
}
