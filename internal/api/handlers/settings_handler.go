package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postr/internal/service"
	"github.com/maheshrc27/postr/internal/transfer"
)

type SettingsHandler struct {
	s service.AccountService
}

func NewSettingsHandler(service service.AccountService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetSettingsInfo(c *fiber.Ctx) error {
	settingsInfo, err := h.s.GetSettings(c.Context(), Account(c), GetPubkey(c))
	if err != nil {
		return Fail(c, err)
	}

	return c.JSON(settingsInfo)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var settings transfer.SettingsUpdate
	err := c.BodyParser(&settings)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	updated, err := h.s.UpdateSettings(c.Context(), Account(c), GetPubkey(c), settings)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(updated)
}
