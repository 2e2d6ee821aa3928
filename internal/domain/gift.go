package domain

import (
	"context"
	"time"
)

// Gift subscription status constants
const (
	GiftStatusPending  = "pending"
	GiftStatusSent     = "sent"
	GiftStatusRedeemed = "redeemed"
)

// GiftSubscription is a purchased-for-someone-else offering. It is
// created when a paid order contains a gift line item and redeemed by
// the recipient via RedeemCode.
type GiftSubscription struct {
	ID            string        `bson:"_id,omitempty" json:"id"`
	OrderID       string        `bson:"order_id,omitempty" json:"order_id"`
	ProductID     string        `bson:"product_id,omitempty" json:"product_id"`
	Recipient     GiftRecipient `bson:"recipient,omitempty" json:"recipient"`
	RedeemCode    string        `bson:"redeem_code,omitempty" json:"redeem_code"`
	Status        string        `bson:"status,omitempty" json:"status"` // pending, sent, redeemed
	MonthsGranted int           `bson:"months_granted,omitempty" json:"months_granted"`
	RedeemedBy    string        `bson:"redeemed_by,omitempty" json:"redeemed_by,omitempty"`
	RedeemedAt    *time.Time    `bson:"redeemed_at,omitempty" json:"redeemed_at,omitempty"`
	CreatedAt     time.Time     `bson:"created_at,omitempty" json:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at,omitempty" json:"updated_at"`
}

// GiftSubscriptionRepository defines operations for managing gift subscriptions
type GiftSubscriptionRepository interface {
	Create(ctx context.Context, gift *GiftSubscription) error
	GetByID(ctx context.Context, id string) (*GiftSubscription, error)
	GetByRedeemCode(ctx context.Context, code string) (*GiftSubscription, error)
	GetByOrderID(ctx context.Context, orderID string) ([]*GiftSubscription, error)
	Update(ctx context.Context, gift *GiftSubscription) error
}
