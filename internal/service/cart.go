package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stridelab/stridefit/internal/domain"
)

// CartService owns the load-mutate-save cycle around the session cart.
// Prices are always re-resolved from the catalog here; amounts supplied
// by the client never enter the cart.
type CartService struct {
	carts    domain.CartRepository
	products domain.ProductRepository
}

// NewCartService creates a new CartService
func NewCartService(carts domain.CartRepository, products domain.ProductRepository) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
	}
}

// GetCart returns the session's cart, or a fresh empty one when the
// session has no snapshot yet
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewCart(sessionID), nil
		}
		return nil, err
	}
	return cart, nil
}

// AddItemParams describes an add-to-cart request after transport decoding
type AddItemParams struct {
	ProductID     string
	Interval      domain.Interval // optional; subscriptions default to yearly
	GiftRecipient *domain.GiftRecipient
	Customer      *domain.CustomerDetails
}

// AddItem resolves the product, prices the line item from the catalog
// and appends it to the session cart. Subscription items are anchored
// at the canonical monthly price; the requested interval is applied as
// a derived view on top of that anchor.
func (s *CartService) AddItem(ctx context.Context, sessionID string, params AddItemParams) (*domain.Cart, error) {
	product, err := s.products.GetByID(ctx, params.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: product %s is not active", domain.ErrInvalidItem, product.ID)
	}

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	input := domain.CartItemInput{
		ProductID:     product.ID,
		Name:          product.Name,
		Description:   product.Description,
		PriceCents:    product.PriceCents,
		GiftRecipient: params.GiftRecipient,
		Customer:      params.Customer,
	}
	if product.IsSubscription() {
		input.Interval = domain.IntervalMonth // catalog price is the monthly anchor
	}

	item, err := cart.AddItem(input)
	if err != nil {
		return nil, err
	}

	if product.IsSubscription() {
		// default to yearly billing unless the caller asked for monthly
		interval := params.Interval
		if interval == domain.IntervalNone {
			interval = domain.IntervalYear
		}
		cart.UpdateItemInterval(item.ID, interval)
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops a line item; absent IDs are a no-op
func (s *CartService) RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) {
		cart.RemoveItem(itemID)
	})
}

// UpdateItemInterval switches a subscription item's billing interval
func (s *CartService) UpdateItemInterval(ctx context.Context, sessionID, itemID string, interval domain.Interval) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) {
		cart.UpdateItemInterval(itemID, interval)
	})
}

// ToggleGiftStatus flips the gift flag on a line item
func (s *CartService) ToggleGiftStatus(ctx context.Context, sessionID, itemID string, isGift bool) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) {
		cart.ToggleGiftStatus(itemID, isGift)
	})
}

// UpdateGiftRecipient attaches recipient details and marks the item as a gift
func (s *CartService) UpdateGiftRecipient(ctx context.Context, sessionID, itemID string, recipient domain.GiftRecipient) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) {
		cart.UpdateGiftRecipient(itemID, recipient)
	})
}

// SetCustomer attaches participant contact details to a line item
func (s *CartService) SetCustomer(ctx context.Context, sessionID, itemID string, customer domain.CustomerDetails) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) {
		cart.SetCustomer(itemID, customer)
	})
}

// Clear removes the session's cart snapshot entirely
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.carts.Delete(ctx, sessionID)
}

func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(cart *domain.Cart)) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	fn(cart)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}
