package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postr/internal/service"
	"github.com/maheshrc27/postr/internal/transfer"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(service service.AccountService) *AccountHandler {
	return &AccountHandler{s: service}
}

func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var req transfer.AccountCreation
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}

	account, err := h.s.CreateAccount(c.Context(), GetPubkey(c), req)
	if err != nil {
		return Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.s.ListForUser(c.Context(), GetPubkey(c))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(accounts)
}

func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	account, err := h.s.Get(c.Context(), Account(c), GetPubkey(c))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(account)
}
