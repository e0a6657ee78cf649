package handlers

import (
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postr/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		slog.Info(err.Error())
		return badRequest(c, "No file selected")
	}

	f, err := fh.Open()
	if err != nil {
		return Fail(c, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return Fail(c, err)
	}

	upload, err := h.s.Upload(c.Context(), Account(c), GetPubkey(c), content)
	if err != nil {
		return Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(upload)
}
