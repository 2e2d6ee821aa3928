package domain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/oklog/ulid/v2"
)

// Interval is the recurrence period of a subscription charge.
// An empty interval means a one-time purchase.
type Interval string

const (
	IntervalNone  Interval = ""
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// Checkout mode constants, derived from cart contents
const (
	CheckoutModePayment      = "payment"      // one-time charges only
	CheckoutModeSubscription = "subscription" // at least one recurring item
)

// YearlyDiscountRate is the fixed discount applied when a subscription
// is billed annually instead of monthly.
const YearlyDiscountRate = 0.20

// MonthlyToYearlyCents converts a per-month price to the discounted
// total annual price, rounded to the nearest cent.
func MonthlyToYearlyCents(monthly int64) int64 {
	return int64(math.Round(float64(monthly) * 12 * (1 - YearlyDiscountRate)))
}

// YearlyToMonthlyCents is the exact inverse of MonthlyToYearlyCents:
// it recovers the effective per-month price from a discounted annual total.
func YearlyToMonthlyCents(yearly int64) int64 {
	return int64(math.Round(float64(yearly) / (1 - YearlyDiscountRate) / 12))
}

// GiftRecipient holds delivery metadata for a gifted item
type GiftRecipient struct {
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Message string     `json:"message,omitempty"`
	SendAt  *time.Time `json:"send_at,omitempty"`
}

// CustomerDetails holds contact metadata attached to specific offerings
// (e.g. a dated challenge program that needs a reachable participant)
type CustomerDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// CartItem is a single selected offering. Its displayed price is always
// derived from the anchor (BasePriceCents at BaseInterval); interval
// switches never overwrite the anchor, so repeated month/year toggling
// cannot accumulate rounding drift.
type CartItem struct {
	ID             string           `json:"id"` // line-item ULID, independent of product identity
	ProductID      string           `json:"product_id"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	BasePriceCents int64            `json:"base_price_cents"`
	BaseInterval   Interval         `json:"base_interval,omitempty"`
	Interval       Interval         `json:"interval,omitempty"`
	IsGift         bool             `json:"is_gift,omitempty"`
	GiftRecipient  *GiftRecipient   `json:"gift_recipient,omitempty"`
	Customer       *CustomerDetails `json:"customer,omitempty"`
}

// PriceCents returns the displayed price for the item's current interval,
// derived from the anchor price.
func (i *CartItem) PriceCents() int64 {
	if i.BaseInterval == IntervalNone || i.Interval == i.BaseInterval {
		return i.BasePriceCents
	}
	if i.Interval == IntervalYear {
		return MonthlyToYearlyCents(i.BasePriceCents)
	}
	return YearlyToMonthlyCents(i.BasePriceCents)
}

// YearlyDiscountApplied reports whether the item is billed annually.
// Computed, never stored, so it cannot fall out of sync with Interval.
func (i *CartItem) YearlyDiscountApplied() bool {
	return i.Interval == IntervalYear
}

// IsOneTime reports whether the item is a one-time purchase
func (i *CartItem) IsOneTime() bool {
	return i.BaseInterval == IntervalNone
}

// Cart holds the ordered collection of selected offerings for one
// browser session, plus the derived total. All mutation methods are
// synchronous and recompute TotalCents before returning.
type Cart struct {
	SessionID  string     `json:"session_id"`
	Items      []CartItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewCart creates an empty cart for the given session
func NewCart(sessionID string) *Cart {
	return &Cart{SessionID: sessionID}
}

// CartItemInput is a candidate item for AddItem. PriceCents is the
// canonical price quoted at Interval (or the pre-discounted yearly total
// when Recurring is set with no explicit interval).
type CartItemInput struct {
	ProductID     string
	Name          string
	Description   string
	PriceCents    int64
	Interval      Interval
	Recurring     bool
	IsGift        bool
	GiftRecipient *GiftRecipient
	Customer      *CustomerDetails
}

// AddItem validates the input, assigns a line-item ID and appends the
// item. Recurring items with no explicit interval default to yearly
// billing; the supplied price is then the discounted annual total.
func (c *Cart) AddItem(input CartItemInput) (*CartItem, error) {
	if input.ProductID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidItem)
	}
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if input.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}

	interval := input.Interval
	switch interval {
	case IntervalNone, IntervalMonth, IntervalYear:
	default:
		return nil, fmt.Errorf("%w: unknown billing interval %q", ErrInvalidItem, interval)
	}
	if input.Recurring && interval == IntervalNone {
		interval = IntervalYear
	}

	isGift := input.IsGift
	if input.GiftRecipient != nil {
		isGift = true
	}

	item := CartItem{
		ID:             ulid.Make().String(),
		ProductID:      input.ProductID,
		Name:           input.Name,
		Description:    input.Description,
		BasePriceCents: input.PriceCents,
		BaseInterval:   interval,
		Interval:       interval,
		IsGift:         isGift,
		GiftRecipient:  input.GiftRecipient,
		Customer:       input.Customer,
	}

	c.Items = append(c.Items, item)
	c.recompute()
	return &c.Items[len(c.Items)-1], nil
}

// RemoveItem removes all items with the given line-item ID. Removing an
// absent ID is a silent no-op so deletes stay idempotent.
func (c *Cart) RemoveItem(id string) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.recompute()
}

// UpdateItemInterval switches the billing interval of a subscription
// item. It is a no-op when the item is absent, already billed at the
// requested interval, or a one-time purchase (one-time items never gain
// a recurring interval).
func (c *Cart) UpdateItemInterval(id string, interval Interval) {
	if interval != IntervalMonth && interval != IntervalYear {
		return
	}
	item, ok := c.item(id)
	if !ok || item.IsOneTime() || item.Interval == interval {
		return
	}
	item.Interval = interval
	c.recompute()
}

// ToggleGiftStatus sets the gift flag on the matching item
func (c *Cart) ToggleGiftStatus(id string, isGift bool) {
	item, ok := c.item(id)
	if !ok {
		return
	}
	item.IsGift = isGift
	if !isGift {
		item.GiftRecipient = nil
	}
	c.recompute()
}

// UpdateGiftRecipient attaches recipient metadata and marks the item as
// a gift.
func (c *Cart) UpdateGiftRecipient(id string, recipient GiftRecipient) {
	item, ok := c.item(id)
	if !ok {
		return
	}
	item.GiftRecipient = &recipient
	item.IsGift = true
	c.recompute()
}

// SetCustomer attaches contact details to the matching item
func (c *Cart) SetCustomer(id string, customer CustomerDetails) {
	item, ok := c.item(id)
	if !ok {
		return
	}
	item.Customer = &customer
	c.recompute()
}

// Clear empties the cart. Called exactly once per successful checkout
// (webhook fulfillment); a cancelled checkout session leaves the cart
// intact so the user can retry.
func (c *Cart) Clear() {
	c.Items = nil
	c.recompute()
}

// Item returns the item with the given line-item ID
func (c *Cart) Item(id string) (*CartItem, bool) {
	return c.item(id)
}

// IsEmpty reports whether the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CheckoutMode returns the payment-provider session mode for the cart:
// subscription when any item recurs, payment otherwise.
func (c *Cart) CheckoutMode() string {
	for i := range c.Items {
		if c.Items[i].Interval != IntervalNone {
			return CheckoutModeSubscription
		}
	}
	return CheckoutModePayment
}

func (c *Cart) item(id string) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// recompute re-derives the total from item prices. Every mutation calls
// this before returning, so TotalCents can never be observed stale.
func (c *Cart) recompute() {
	var total int64
	for i := range c.Items {
		total += c.Items[i].PriceCents()
	}
	c.TotalCents = total
	c.UpdatedAt = time.Now().UTC()
}

// CartRepository defines session-scoped cart storage
type CartRepository interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, sessionID string) error
}
