package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postr/internal/service"
	"github.com/maheshrc27/postr/internal/transfer"
)

type CollaboratorHandler struct {
	s service.CollaboratorService
}

func NewCollaboratorHandler(service service.CollaboratorService) *CollaboratorHandler {
	return &CollaboratorHandler{s: service}
}

func (h *CollaboratorHandler) Invite(c *fiber.Ctx) error {
	var req transfer.Invitation
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}

	au, err := h.s.Invite(c.Context(), Account(c), GetPubkey(c), req)
	if err != nil {
		return Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(au)
}

func (h *CollaboratorHandler) Respond(c *fiber.Ctx) error {
	var req transfer.InvitationResponse
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}

	au, err := h.s.Respond(c.Context(), Account(c), GetPubkey(c), req.Accept)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(au)
}

func (h *CollaboratorHandler) UpdatePermissions(c *fiber.Ctx) error {
	var req transfer.PermissionsUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}

	au, err := h.s.UpdatePermissions(c.Context(), Account(c), GetPubkey(c), strings.ToLower(c.Params("user")), req)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(au)
}

func (h *CollaboratorHandler) Remove(c *fiber.Ctx) error {
	if err := h.s.Remove(c.Context(), Account(c), GetPubkey(c), strings.ToLower(c.Params("user"))); err != nil {
		return Fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CollaboratorHandler) List(c *fiber.Ctx) error {
	members, err := h.s.List(c.Context(), Account(c), GetPubkey(c))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(members)
}
