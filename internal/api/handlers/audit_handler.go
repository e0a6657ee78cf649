package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postr/internal/service"
)

type AuditHandler struct {
	s service.AuditService
}

func NewAuditHandler(service service.AuditService) *AuditHandler {
	return &AuditHandler{s: service}
}

func (h *AuditHandler) List(c *fiber.Ctx) error {
	logs, err := h.s.List(c.Context(), Account(c), GetPubkey(c), c.QueryInt("take", 0), c.QueryInt("skip", 0))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(logs)
}
