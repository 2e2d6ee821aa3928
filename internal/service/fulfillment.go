package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stridelab/stridefit/internal/domain"
)

// FulfillmentService turns a paid order into granted access: it stacks
// the buyer's subscription window, records subscription history and
// creates redeemable gift subscriptions. Called from the payment
// webhook, so every step is idempotent or tolerates partial reruns.
type FulfillmentService struct {
	orders        domain.OrderRepository
	users         domain.UserRepository
	products      domain.ProductRepository
	subscriptions domain.SubscriptionRepository
	gifts         domain.GiftSubscriptionRepository
	carts         domain.CartRepository
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(
	orders domain.OrderRepository,
	users domain.UserRepository,
	products domain.ProductRepository,
	subscriptions domain.SubscriptionRepository,
	gifts domain.GiftSubscriptionRepository,
	carts domain.CartRepository,
) *FulfillmentService {
	return &FulfillmentService{
		orders:        orders,
		users:         users,
		products:      products,
		subscriptions: subscriptions,
		gifts:         gifts,
		carts:         carts,
	}
}

// CompleteOrder processes a successful payment. Already-paid orders
// short-circuit so webhook retries cannot double-grant. The cart is
// cleared here and only here, once the checkout is known to have
// succeeded.
func (s *FulfillmentService) CompleteOrder(ctx context.Context, order *domain.Order, customerEmail string) error {
	if order.Status == domain.OrderStatusPaid {
		log.Printf("[Fulfillment] Order already paid: id=%s", order.ID)
		return nil
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPaid); err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	email := order.Email
	if email == "" {
		email = customerEmail
	}

	for _, item := range order.Items {
		durationMonths := 1
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			log.Printf("[Fulfillment] Failed to get product %s: %v", item.ProductID, err)
			// Default to one month per cycle; the paid order stands
		} else {
			durationMonths = product.DurationMonths
		}
		monthsGranted := domain.MonthsGrantedFor(item.Interval, durationMonths)

		if item.IsGift && item.GiftRecipient != nil {
			if err := s.createGift(ctx, order.ID, item, monthsGranted); err != nil {
				log.Printf("[Fulfillment] Failed to create gift for order %s: %v", order.ID, err)
			}
			continue
		}

		if item.Interval != domain.IntervalNone {
			if err := s.grantSubscription(ctx, order.ID, item, email, monthsGranted); err != nil {
				log.Printf("[Fulfillment] Failed to grant subscription for order %s: %v", order.ID, err)
			}
		}
	}

	// Clear the session cart; a failed delete only leaves a stale
	// snapshot behind, the TTL reclaims it
	if order.CartSessionID != "" {
		if err := s.carts.Delete(ctx, order.CartSessionID); err != nil {
			log.Printf("[Fulfillment] Failed to clear cart %s: %v", order.CartSessionID, err)
		}
	}

	log.Printf("[Fulfillment] Order fulfilled: id=%s, items=%d", order.ID, len(order.Items))
	return nil
}

// ExpireOrder marks a pending order expired. The cart is deliberately
// left untouched so the customer can retry checkout.
func (s *FulfillmentService) ExpireOrder(ctx context.Context, orderID string) error {
	if err := s.orders.UpdateStatus(ctx, orderID, domain.OrderStatusExpired); err != nil {
		return fmt.Errorf("failed to expire order: %w", err)
	}
	return nil
}

// RedeemGift applies a gift subscription's granted months to the
// redeeming user and marks the code used. Redeeming an already-used
// code returns ErrForbidden.
func (s *FulfillmentService) RedeemGift(ctx context.Context, code, email, name string) (*domain.GiftSubscription, error) {
	gift, err := s.gifts.GetByRedeemCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if gift.Status == domain.GiftStatusRedeemed {
		return nil, fmt.Errorf("%w: gift code already redeemed", domain.ErrForbidden)
	}

	user := &domain.User{Email: email, Name: name}
	if err := s.users.UpsertByEmail(ctx, user); err != nil {
		return nil, err
	}

	newEndDate := domain.CalculateNewEndDate(user.SubscriptionEndDate, gift.MonthsGranted)
	now := time.Now().UTC()

	subscription := &domain.Subscription{
		UserID:    user.ID,
		OrderID:   gift.OrderID,
		ProductID: gift.ProductID,
		StartDate: now,
		EndDate:   newEndDate,
	}
	if err := s.subscriptions.Create(ctx, subscription); err != nil {
		return nil, err
	}

	user.SubscriptionEndDate = &newEndDate
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	gift.Status = domain.GiftStatusRedeemed
	gift.RedeemedBy = user.ID
	gift.RedeemedAt = &now
	if err := s.gifts.Update(ctx, gift); err != nil {
		return nil, err
	}

	log.Printf("[Fulfillment] Gift redeemed: code=%s, user=%s, months=%d", code, user.ID, gift.MonthsGranted)
	return gift, nil
}

func (s *FulfillmentService) createGift(ctx context.Context, orderID string, item domain.OrderItem, monthsGranted int) error {
	gift := &domain.GiftSubscription{
		OrderID:       orderID,
		ProductID:     item.ProductID,
		Recipient:     *item.GiftRecipient,
		RedeemCode:    ulid.Make().String(),
		Status:        domain.GiftStatusPending,
		MonthsGranted: monthsGranted,
	}
	return s.gifts.Create(ctx, gift)
}

func (s *FulfillmentService) grantSubscription(ctx context.Context, orderID string, item domain.OrderItem, email string, monthsGranted int) error {
	if email == "" {
		return errors.New("no customer email on order")
	}

	user := &domain.User{Email: email}
	if err := s.users.UpsertByEmail(ctx, user); err != nil {
		return err
	}

	newEndDate := domain.CalculateNewEndDate(user.SubscriptionEndDate, monthsGranted)
	now := time.Now().UTC()

	subscription := &domain.Subscription{
		UserID:    user.ID,
		OrderID:   orderID,
		ProductID: item.ProductID,
		StartDate: now,
		EndDate:   newEndDate,
	}
	if err := s.subscriptions.Create(ctx, subscription); err != nil {
		return err
	}

	user.SubscriptionEndDate = &newEndDate
	return s.users.Update(ctx, user)
}
