package handler

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/stridelab/stridefit/internal/domain"
	"github.com/stridelab/stridefit/internal/service"
)

// CheckoutHandler turns a session cart into a pending order and a
// hosted payment session
type CheckoutHandler struct {
	cartService *service.CartService
	orderRepo   domain.OrderRepository
	productRepo domain.ProductRepository
	provider    service.CheckoutProvider
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(
	cartService *service.CartService,
	orderRepo domain.OrderRepository,
	productRepo domain.ProductRepository,
	provider service.CheckoutProvider,
) *CheckoutHandler {
	return &CheckoutHandler{
		cartService: cartService,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		provider:    provider,
	}
}

// CheckoutRequest represents the request body for checkout
type CheckoutRequest struct {
	Email string `json:"email"`
}

// CheckoutResponse carries the redirect URL for the hosted payment page
type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	URL         string `json:"url"`
	AmountCents int64  `json:"amount_cents"`
	Mode        string `json:"mode"`
}

// Checkout handles POST /api/checkout.
// Amounts are re-resolved from the catalog here; the cart snapshot is
// only trusted for WHAT was selected, never for how much it costs.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	ctx := c.UserContext()

	sessionID, _ := c.Locals("cartSessionID").(string)

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	cart, err := h.cartService.GetCart(ctx, sessionID)
	if err != nil {
		log.Printf("[Checkout] Error loading cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to load cart",
		})
	}
	if cart.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "cart is empty",
		})
	}

	email := req.Email
	if email == "" {
		for i := range cart.Items {
			if cart.Items[i].Customer != nil && cart.Items[i].Customer.Email != "" {
				email = cart.Items[i].Customer.Email
				break
			}
		}
	}

	orderItems, total, err := h.priceOrderItems(ctx, cart)
	if err != nil {
		var unavailable *productUnavailableError
		if errors.As(err, &unavailable) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"error":   "product " + unavailable.productID + " is no longer available",
			})
		}
		log.Printf("[Checkout] Error pricing cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to price cart",
		})
	}

	order := &domain.Order{
		CartSessionID: cart.SessionID,
		Email:         email,
		Items:         orderItems,
		AmountCents:   total,
		Mode:          cart.CheckoutMode(),
		Status:        domain.OrderStatusPending,
	}
	if err := h.orderRepo.Create(ctx, order); err != nil {
		log.Printf("[Checkout] Error creating order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to create order",
		})
	}

	lineItems := make([]service.CheckoutLineItem, 0, len(orderItems))
	for _, item := range orderItems {
		lineItems = append(lineItems, service.CheckoutLineItem{
			Name:        item.Name,
			Description: item.Description,
			AmountCents: item.AmountCents,
			Interval:    item.Interval,
		})
	}

	session, err := h.provider.CreateSession(ctx, service.CheckoutParams{
		OrderID:       order.ID,
		Mode:          order.Mode,
		CustomerEmail: email,
		LineItems:     lineItems,
	})
	if err != nil {
		log.Printf("[Checkout] Provider error for order %s: %v", order.ID, err)
		// The cart stays as-is so the customer can simply retry
		if updErr := h.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderStatusFailed); updErr != nil {
			log.Printf("[Checkout] Error marking order failed: %v", updErr)
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   "payment service unavailable, please try again later",
		})
	}

	order.ProviderSessionID = session.ID
	if err := h.orderRepo.Update(ctx, order); err != nil {
		log.Printf("[Checkout] Error storing provider session on order %s: %v", order.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to update order",
		})
	}

	log.Printf("[Checkout] Session created: order=%s, session=%s, amount=%d, mode=%s",
		order.ID, session.ID, total, order.Mode)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": CheckoutResponse{
			OrderID:     order.ID,
			SessionID:   session.ID,
			URL:         session.URL,
			AmountCents: total,
			Mode:        order.Mode,
		},
	})
}

// productUnavailableError signals a cart item whose product has vanished
// or gone inactive since it was added
type productUnavailableError struct {
	productID string
}

func (e *productUnavailableError) Error() string {
	return "product " + e.productID + " is no longer available"
}

// priceOrderItems re-resolves every line item's amount from the current
// catalog
func (h *CheckoutHandler) priceOrderItems(ctx context.Context, cart *domain.Cart) ([]domain.OrderItem, int64, error) {
	items := make([]domain.OrderItem, 0, len(cart.Items))
	var total int64

	for i := range cart.Items {
		cartItem := &cart.Items[i]

		product, err := h.productRepo.GetByID(ctx, cartItem.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, 0, &productUnavailableError{productID: cartItem.ProductID}
			}
			return nil, 0, err
		}
		if !product.IsActive {
			return nil, 0, &productUnavailableError{productID: cartItem.ProductID}
		}

		amount := product.PriceCents
		if product.IsSubscription() && cartItem.Interval == domain.IntervalYear {
			amount = domain.MonthlyToYearlyCents(product.PriceCents)
		}

		items = append(items, domain.OrderItem{
			LineItemID:    cartItem.ID,
			ProductID:     product.ID,
			Name:          product.Name,
			Description:   product.Description,
			AmountCents:   amount,
			Interval:      cartItem.Interval,
			IsGift:        cartItem.IsGift,
			GiftRecipient: cartItem.GiftRecipient,
		})
		total += amount
	}

	return items, total, nil
}

// GetOrderStatus handles GET /api/checkout/orders/:id
// Returns the order status so the success page can poll for fulfillment
func (h *CheckoutHandler) GetOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if orderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "order ID is required",
		})
	}

	order, err := h.orderRepo.GetByID(c.UserContext(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "order not found",
			})
		}
		log.Printf("[Checkout] Error fetching order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to fetch order",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"order_id":     order.ID,
			"status":       order.Status,
			"amount_cents": order.AmountCents,
			"mode":         order.Mode,
		},
	})
}
