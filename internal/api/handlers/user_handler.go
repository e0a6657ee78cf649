package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postr/internal/service"
	"github.com/maheshrc27/postr/internal/transfer"
)

type UserHandler struct {
	s service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{s: service}
}

func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	userInfo, err := h.s.GetUserInfo(c.Context(), GetPubkey(c))
	if err != nil {
		return Fail(c, err)
	}

	return c.JSON(userInfo)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req transfer.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}

	user, err := h.s.UpdateProfile(c.Context(), GetPubkey(c), req.Name)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(user)
}
