package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postr/internal/service"
	"github.com/maheshrc27/postr/internal/transfer"
)

type ScheduleHandler struct {
	s service.ScheduleService
}

func NewScheduleHandler(service service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{s: service}
}

func (h *ScheduleHandler) Schedule(c *fiber.Ctx) error {
	var req transfer.ScheduleCreation
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}

	schedule, err := h.s.Schedule(c.Context(), Account(c), GetPubkey(c), req)
	if err != nil {
		return Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(schedule)
}

func (h *ScheduleHandler) Cancel(c *fiber.Ctx) error {
	schedule, err := h.s.Cancel(c.Context(), Account(c), GetPubkey(c), c.Params("id"))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(schedule)
}

func (h *ScheduleHandler) List(c *fiber.Ctx) error {
	var filter transfer.ScheduleFilter
	if err := c.QueryParser(&filter); err != nil {
		return badRequest(c, "invalid query parameters")
	}

	schedules, err := h.s.List(c.Context(), Account(c), GetPubkey(c), filter)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(schedules)
}
