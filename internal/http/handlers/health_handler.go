package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

type HealthHandler struct {
	DB     *sqlx.DB
	Checks map[string]func(context.Context) error
}

// GET /healthz
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx := c.UserContext()
	status := map[string]string{"db": "ok"}
	ok := true
	if err := h.DB.PingContext(ctx); err != nil {
		status["db"], ok = err.Error(), false
	}
	for name, fn := range h.Checks {
		status[name] = "ok"
		if err := fn(ctx); err != nil {
			status[name], ok = err.Error(), false
		}
	}
	code := fiber.StatusOK
	if !ok {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"ok": ok, "checks": status})
}
