package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/stridelab/stridefit/internal/domain"
	"github.com/stridelab/stridefit/internal/service"
)

// GiftHandler handles gift subscription redemption
type GiftHandler struct {
	giftRepo    domain.GiftSubscriptionRepository
	fulfillment *service.FulfillmentService
}

// NewGiftHandler creates a new GiftHandler
func NewGiftHandler(giftRepo domain.GiftSubscriptionRepository, fulfillment *service.FulfillmentService) *GiftHandler {
	return &GiftHandler{
		giftRepo:    giftRepo,
		fulfillment: fulfillment,
	}
}

// GiftResponse represents a gift subscription for the frontend
type GiftResponse struct {
	ProductID     string `json:"product_id"`
	RecipientName string `json:"recipient_name"`
	Message       string `json:"message,omitempty"`
	MonthsGranted int    `json:"months_granted"`
	Status        string `json:"status"`
}

// GetGift handles GET /api/gifts/:code
// Lets the recipient preview what the code grants before redeeming
func (h *GiftHandler) GetGift(c *fiber.Ctx) error {
	code := c.Params("code")

	gift, err := h.giftRepo.GetByRedeemCode(c.UserContext(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "gift code not found",
			})
		}
		log.Printf("[Gift] Error fetching gift: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to fetch gift",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": GiftResponse{
			ProductID:     gift.ProductID,
			RecipientName: gift.Recipient.Name,
			Message:       gift.Recipient.Message,
			MonthsGranted: gift.MonthsGranted,
			Status:        gift.Status,
		},
	})
}

// RedeemGiftRequest represents the redemption payload
type RedeemGiftRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// RedeemGift handles POST /api/gifts/:code/redeem
func (h *GiftHandler) RedeemGift(c *fiber.Ctx) error {
	code := c.Params("code")

	var req RedeemGiftRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}
	if req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "email is required",
		})
	}

	gift, err := h.fulfillment.RedeemGift(c.UserContext(), code, req.Email, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "gift code not found",
			})
		}
		if errors.Is(err, domain.ErrForbidden) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"error":   "gift code already redeemed",
			})
		}
		log.Printf("[Gift] Error redeeming gift %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to redeem gift",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": GiftResponse{
			ProductID:     gift.ProductID,
			RecipientName: gift.Recipient.Name,
			MonthsGranted: gift.MonthsGranted,
			Status:        gift.Status,
		},
	})
}
