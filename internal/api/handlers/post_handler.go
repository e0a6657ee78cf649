package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postr/internal/service"
	"github.com/maheshrc27/postr/internal/transfer"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) CreateDraft(c *fiber.Ctx) error {
	var req transfer.PostInput
	if err := c.BodyParser(&req); err != nil || len(req.Event) == 0 {
		return badRequest(c, "request body must contain an event")
	}

	post, err := h.s.CreateDraft(c.Context(), Account(c), GetPubkey(c), string(req.Event))
	if err != nil {
		return Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) Import(c *fiber.Ctx) error {
	var req transfer.PostInput
	if err := c.BodyParser(&req); err != nil || len(req.Event) == 0 {
		return badRequest(c, "request body must contain a signed event")
	}

	post, err := h.s.Import(c.Context(), Account(c), GetPubkey(c), string(req.Event))
	if err != nil {
		return Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	var filter transfer.PostFilter
	if err := c.QueryParser(&filter); err != nil {
		return badRequest(c, "invalid query parameters")
	}

	posts, err := h.s.List(c.Context(), Account(c), GetPubkey(c), filter)
	if err != nil {
		return Fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.s.Get(c.Context(), Account(c), GetPubkey(c), c.Params("id"))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	err := h.s.Delete(c.Context(), Account(c), GetPubkey(c), c.Params("id"))
	if err != nil {
		return Fail(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.s.Stats(c.Context(), Account(c), GetPubkey(c))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(stats)
}
