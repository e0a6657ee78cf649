package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postr/internal/service"
)

type BillingHandler struct {
	s service.SubscriptionService
}

func NewBillingHandler(service service.SubscriptionService) *BillingHandler {
	return &BillingHandler{s: service}
}

func (h *BillingHandler) StripeWebhook(c *fiber.Ctx) error {
	// the signature covers the exact bytes, so the body is passed through unparsed
	payload := append([]byte(nil), c.Body()...)

	if err := h.s.HandleStripeWebhook(c.Context(), payload, c.Get("Stripe-Signature")); err != nil {
		return Fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *BillingHandler) Status(c *fiber.Ctx) error {
	status, err := h.s.Status(c.Context(), Account(c), GetPubkey(c))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(status)
}

func (h *BillingHandler) Revenue(c *fiber.Ctx) error {
	lines, err := h.s.Revenue(c.Context(), Account(c), GetPubkey(c))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(lines)
}
