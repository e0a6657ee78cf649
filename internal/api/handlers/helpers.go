package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postr/internal/repository"
	"github.com/maheshrc27/postr/internal/service"
)

// GetPubkey returns the pubkey the auth middleware stored for the request.
func GetPubkey(c *fiber.Ctx) string {
	pubkey, _ := c.Locals("pubkey").(string)
	return pubkey
}

// Account returns the :account route parameter.
func Account(c *fiber.Ctx) string {
	return strings.ToLower(c.Params("account"))
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrSubscriptionRequired):
		return fiber.StatusPaymentRequired
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, repository.ErrInvalidReference):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// Fail replies with the status matching err. Unexpected errors are not echoed.
func Fail(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		slog.Error(msg, "path", c.Path())
		msg = "something went wrong"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
