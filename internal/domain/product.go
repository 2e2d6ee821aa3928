package domain

import (
	"context"
	"time"
)

// Product kind constants
const (
	ProductKindOneTime      = "one_time"
	ProductKindSubscription = "subscription"
)

// Product represents a purchasable coaching offering. For subscriptions
// PriceCents is the canonical per-month price; yearly pricing is always
// derived from it, never stored. For one-time offerings it is the full
// charge.
type Product struct {
	ID             string    `bson:"_id,omitempty" json:"id"` // stable catalog key, e.g. "full-coaching"
	Name           string    `bson:"name,omitempty" json:"name"`
	Description    string    `bson:"description,omitempty" json:"description"`
	Kind           string    `bson:"kind,omitempty" json:"kind"` // one_time, subscription
	PriceCents     int64     `bson:"price_cents,omitempty" json:"price_cents"`
	DurationMonths int       `bson:"duration_months,omitempty" json:"duration_months"` // months granted per billing cycle
	ImageURL       string    `bson:"image_url,omitempty" json:"image_url"`
	IsActive       bool      `bson:"is_active,omitempty" json:"is_active"`
	CreatedAt      time.Time `bson:"created_at,omitempty" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at,omitempty" json:"updated_at"`
}

// IsSubscription reports whether the product bills on a recurring interval
func (p *Product) IsSubscription() bool {
	return p.Kind == ProductKindSubscription
}

// ProductRepository defines operations for managing the catalog
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	GetActiveProducts(ctx context.Context) ([]*Product, error)
	Update(ctx context.Context, product *Product) error
}
