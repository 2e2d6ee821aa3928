package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/stridelab/stridefit/internal/domain"
	"github.com/stridelab/stridefit/internal/service"
)

// CartHandler handles session cart API endpoints
type CartHandler struct {
	cartService *service.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// CartItemResponse is one priced line item as the frontend sees it
type CartItemResponse struct {
	ID                    string                  `json:"id"`
	ProductID             string                  `json:"product_id"`
	Name                  string                  `json:"name"`
	Description           string                  `json:"description,omitempty"`
	PriceCents            int64                   `json:"price_cents"`
	Interval              string                  `json:"interval,omitempty"`
	YearlyDiscountApplied bool                    `json:"yearly_discount_applied"`
	IsGift                bool                    `json:"is_gift"`
	GiftRecipient         *domain.GiftRecipient   `json:"gift_recipient,omitempty"`
	Customer              *domain.CustomerDetails `json:"customer,omitempty"`
}

// CartResponse is the full cart snapshot returned by every cart endpoint
type CartResponse struct {
	SessionID  string             `json:"session_id"`
	Items      []CartItemResponse `json:"items"`
	TotalCents int64              `json:"total_cents"`
}

func mapCartToResponse(cart *domain.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		items = append(items, CartItemResponse{
			ID:                    item.ID,
			ProductID:             item.ProductID,
			Name:                  item.Name,
			Description:           item.Description,
			PriceCents:            item.PriceCents(),
			Interval:              string(item.Interval),
			YearlyDiscountApplied: item.YearlyDiscountApplied(),
			IsGift:                item.IsGift,
			GiftRecipient:         item.GiftRecipient,
			Customer:              item.Customer,
		})
	}
	return CartResponse{
		SessionID:  cart.SessionID,
		Items:      items,
		TotalCents: cart.TotalCents,
	}
}

func cartSessionID(c *fiber.Ctx) string {
	sessionID, _ := c.Locals("cartSessionID").(string)
	return sessionID
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	cart, err := h.cartService.GetCart(c.UserContext(), cartSessionID(c))
	if err != nil {
		log.Printf("[Cart] Error loading cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to load cart",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    mapCartToResponse(cart),
	})
}

// AddItemRequest represents the request body for adding a line item
type AddItemRequest struct {
	ProductID     string                  `json:"product_id"`
	Interval      string                  `json:"interval"` // month or year, optional
	GiftRecipient *domain.GiftRecipient   `json:"gift_recipient,omitempty"`
	Customer      *domain.CustomerDetails `json:"customer,omitempty"`
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	if req.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "product_id is required",
		})
	}

	interval := domain.Interval(req.Interval)
	switch interval {
	case domain.IntervalNone, domain.IntervalMonth, domain.IntervalYear:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "interval must be month or year",
		})
	}

	cart, err := h.cartService.AddItem(c.UserContext(), cartSessionID(c), service.AddItemParams{
		ProductID:     req.ProductID,
		Interval:      interval,
		GiftRecipient: req.GiftRecipient,
		Customer:      req.Customer,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "product not found",
			})
		}
		if errors.Is(err, domain.ErrInvalidItem) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		log.Printf("[Cart] Error adding item: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to add item",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    mapCartToResponse(cart),
	})
}

// RemoveItem handles DELETE /api/cart/items/:id
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	itemID := c.Params("id")
	if itemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "item ID is required",
		})
	}

	cart, err := h.cartService.RemoveItem(c.UserContext(), cartSessionID(c), itemID)
	if err != nil {
		log.Printf("[Cart] Error removing item: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to remove item",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    mapCartToResponse(cart),
	})
}

// UpdateIntervalRequest represents the request body for an interval switch
type UpdateIntervalRequest struct {
	Interval string `json:"interval"` // month or year
}

// UpdateInterval handles PATCH /api/cart/items/:id/interval
func (h *CartHandler) UpdateInterval(c *fiber.Ctx) error {
	itemID := c.Params("id")

	var req UpdateIntervalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	interval := domain.Interval(req.Interval)
	if interval != domain.IntervalMonth && interval != domain.IntervalYear {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "interval must be month or year",
		})
	}

	cart, err := h.cartService.UpdateItemInterval(c.UserContext(), cartSessionID(c), itemID, interval)
	if err != nil {
		log.Printf("[Cart] Error updating interval: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to update interval",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    mapCartToResponse(cart),
	})
}

// GiftRequest represents the request body for gift toggling
type GiftRequest struct {
	IsGift    bool                  `json:"is_gift"`
	Recipient *domain.GiftRecipient `json:"recipient,omitempty"`
}

// UpdateGift handles PATCH /api/cart/items/:id/gift
// Setting recipient details implies is_gift; clearing the flag drops them
func (h *CartHandler) UpdateGift(c *fiber.Ctx) error {
	itemID := c.Params("id")

	var req GiftRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	sessionID := cartSessionID(c)
	ctx := c.UserContext()

	var (
		cart *domain.Cart
		err  error
	)
	if req.Recipient != nil {
		cart, err = h.cartService.UpdateGiftRecipient(ctx, sessionID, itemID, *req.Recipient)
	} else {
		cart, err = h.cartService.ToggleGiftStatus(ctx, sessionID, itemID, req.IsGift)
	}
	if err != nil {
		log.Printf("[Cart] Error updating gift status: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to update gift status",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    mapCartToResponse(cart),
	})
}

// CustomerRequest represents the request body for participant details
type CustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// UpdateCustomer handles PATCH /api/cart/items/:id/customer
func (h *CartHandler) UpdateCustomer(c *fiber.Ctx) error {
	itemID := c.Params("id")

	var req CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	cart, err := h.cartService.SetCustomer(c.UserContext(), cartSessionID(c), itemID, domain.CustomerDetails{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		log.Printf("[Cart] Error updating customer details: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to update customer details",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    mapCartToResponse(cart),
	})
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	if err := h.cartService.Clear(c.UserContext(), cartSessionID(c)); err != nil {
		log.Printf("[Cart] Error clearing cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to clear cart",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "cart cleared",
	})
}
