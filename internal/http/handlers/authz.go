package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "honeydesk/internal/log"
	"honeydesk/internal/services"
)

const (
	SecretHeader    = "X-Honeydesk-Secret"
	dashboardCookie = "dash"
)

// RequireSecret guards the webhook with the shared relay secret.
func RequireSecret(auth services.TokenAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := auth.Check(c.Get(SecretHeader)); err != nil {
			applog.Security(c, "access.denied.webhook", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		return c.Next()
	}
}

// RequireDashboard accepts the dashboard token as ?token=, a bearer header or
// the cookie set after the first successful check.
func RequireDashboard(auth services.TokenAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, fromCookie := dashboardToken(c)
		if err := auth.Check(tok); err != nil {
			applog.Security(c, "access.denied.admin", map[string]any{"has_token": tok != ""})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		if !fromCookie {
			c.Cookie(&fiber.Cookie{
				Name:     dashboardCookie,
				Value:    tok,
				Path:     "/admin",
				HTTPOnly: true,
				SameSite: "Strict",
			})
		}
		return c.Next()
	}
}

func dashboardToken(c *fiber.Ctx) (string, bool) {
	if t := c.Query("token"); t != "" {
		return t, false
	}
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer "), false
	}
	return c.Cookies(dashboardCookie), true
}
