package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postr/internal/service"
	"github.com/maheshrc27/postr/internal/transfer"
)

type QueueHandler struct {
	s service.QueueService
}

func NewQueueHandler(service service.QueueService) *QueueHandler {
	return &QueueHandler{s: service}
}

func (h *QueueHandler) Create(c *fiber.Ctx) error {
	var req transfer.QueueInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}

	q, err := h.s.Create(c.Context(), Account(c), GetPubkey(c), req.Name)
	if err != nil {
		return Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(q)
}

func (h *QueueHandler) Rename(c *fiber.Ctx) error {
	var req transfer.QueueInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}

	q, err := h.s.Rename(c.Context(), Account(c), GetPubkey(c), c.Params("id"), req.Name)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(q)
}

func (h *QueueHandler) Delete(c *fiber.Ctx) error {
	if err := h.s.Delete(c.Context(), Account(c), GetPubkey(c), c.Params("id")); err != nil {
		return Fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *QueueHandler) List(c *fiber.Ctx) error {
	queues, err := h.s.List(c.Context(), Account(c), GetPubkey(c))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(queues)
}
