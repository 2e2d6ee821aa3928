package handler

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/stridelab/stridefit/internal/domain"
	"github.com/stridelab/stridefit/internal/infrastructure/stripe"
	"github.com/stridelab/stridefit/internal/service"
)

// WebhookHandler handles payment-provider webhooks
type WebhookHandler struct {
	orderRepo     domain.OrderRepository
	fulfillment   *service.FulfillmentService
	webhookSecret string
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	orderRepo domain.OrderRepository,
	fulfillment *service.FulfillmentService,
	webhookSecret string,
) *WebhookHandler {
	return &WebhookHandler{
		orderRepo:     orderRepo,
		fulfillment:   fulfillment,
		webhookSecret: webhookSecret,
	}
}

// StripeWebhook handles POST /api/webhooks/stripe
// This is a public endpoint - authenticity comes from the signature
func (h *WebhookHandler) StripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	sigHeader := c.Get("Stripe-Signature")
	if err := stripe.VerifySignature(payload, sigHeader, h.webhookSecret, stripe.DefaultSignatureTolerance); err != nil {
		log.Printf("[Webhook] Signature verification failed: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "invalid signature",
		})
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("[Webhook] Failed to parse event: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid event payload",
		})
	}

	log.Printf("[Webhook] Received event: id=%s, type=%s, session=%s",
		event.ID, event.Type, event.Data.Object.ID)

	switch event.Type {
	case stripe.EventCheckoutSessionCompleted:
		return h.handleSessionCompleted(c, &event)
	case stripe.EventCheckoutSessionExpired:
		return h.handleSessionExpired(c, &event)
	default:
		// Acknowledge everything else so the provider stops retrying
		return c.JSON(fiber.Map{
			"success": true,
			"message": "event ignored",
		})
	}
}

func (h *WebhookHandler) handleSessionCompleted(c *fiber.Ctx, event *stripe.Event) error {
	ctx := c.UserContext()
	session := event.Data.Object

	order, err := h.lookupOrder(c, session.ID, session.ClientReferenceID)
	if order == nil {
		return err
	}

	if err := h.fulfillment.CompleteOrder(ctx, order, session.CustomerEmail); err != nil {
		log.Printf("[Webhook] Fulfillment failed for order %s: %v", order.ID, err)
		// Non-2xx makes the provider retry; CompleteOrder is idempotent
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "fulfillment failed",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "payment processed",
	})
}

func (h *WebhookHandler) handleSessionExpired(c *fiber.Ctx, event *stripe.Event) error {
	ctx := c.UserContext()
	session := event.Data.Object

	order, err := h.lookupOrder(c, session.ID, session.ClientReferenceID)
	if order == nil {
		return err
	}

	// Expired checkouts keep the cart so the customer can retry
	if order.Status == domain.OrderStatusPending {
		if err := h.fulfillment.ExpireOrder(ctx, order.ID); err != nil {
			log.Printf("[Webhook] Failed to expire order %s: %v", order.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "failed to expire order",
			})
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "expiry acknowledged",
	})
}

// lookupOrder resolves the order for a webhook event, preferring the
// provider session ID and falling back to client_reference_id. On a
// miss it writes the response and returns a nil order.
func (h *WebhookHandler) lookupOrder(c *fiber.Ctx, sessionID, referenceID string) (*domain.Order, error) {
	ctx := c.UserContext()

	order, err := h.orderRepo.GetByProviderSessionID(ctx, sessionID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		log.Printf("[Webhook] Error looking up order for session %s: %v", sessionID, err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to look up order",
		})
	}

	if referenceID != "" {
		order, err = h.orderRepo.GetByID(ctx, referenceID)
		if err == nil {
			return order, nil
		}
	}

	log.Printf("[Webhook] Order not found for session=%s, reference=%s", sessionID, referenceID)
	return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"error":   "order not found",
	})
}
