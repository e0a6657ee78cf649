package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postr/configs"
	"github.com/maheshrc27/postr/internal/nostrx"
	"github.com/maheshrc27/postr/internal/service"
	"github.com/maheshrc27/postr/internal/transfer"
	"github.com/maheshrc27/postr/pkg/utils"
)

const sessionDuration = 24 * time.Hour

type AuthHandler struct {
	s   service.AuthService
	cfg config.Config
}

func NewAuthHandler(cfg config.Config, service service.AuthService) *AuthHandler {
	return &AuthHandler{s: service, cfg: cfg}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req transfer.LoginRequest
	if err := c.BodyParser(&req); err != nil || len(req.Event) == 0 {
		return badRequest(c, "request body must contain a signed event")
	}

	user, err := h.s.Login(c.Context(), string(req.Event), RequestTarget(c, h.cfg))
	if err != nil {
		return Fail(c, err)
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, user.Pubkey, sessionDuration)
	if err != nil {
		return Fail(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
		Path:     "/",
		Expires:  time.Now().Add(sessionDuration),
	})

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// RequestTarget is the absolute URL and method a signed kind 27235 event must name for
// this request. PUBLIC_URL wins over the Host header when the API sits behind a proxy.
func RequestTarget(c *fiber.Ctx, cfg config.Config) nostrx.Target {
	base := cfg.PublicURL
	if base == "" {
		base = c.BaseURL()
	}
	return nostrx.Target{
		URL:    strings.TrimRight(base, "/") + c.Path(),
		Method: c.Method(),
	}
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return c.SendStatus(fiber.StatusNoContent)
}
