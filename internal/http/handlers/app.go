package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "honeydesk/internal/log"
)

// Uploads arrive through /api/v1/events/file, so the limit is sized for them.
const bodyLimit = 10 << 20

// NewApp builds the fiber app with middleware and every route registered.
func NewApp(views fiber.Views, d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        views,
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	app.Use(requestid.New())
	app.Use(recover.New())
	Routes(app, d)
	return app
}

func Routes(app *fiber.App, d *Deps) {
	api := app.Group("/api/v1", RequireSecret(d.WebhookAuth), limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.webhook.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	api.Post("/events", d.WebhookHandler.Event)
	api.Post("/events/file", d.WebhookHandler.File)

	admin := app.Group("/admin", helmet.New(), RequireDashboard(d.DashboardAuth))
	admin.Get("/", d.AdminHandler.Dashboard)
	admin.Get("/export/:table", d.AdminHandler.Export)
	admin.Get("/media/*", d.AdminHandler.Media)

	app.Get("/healthz", d.HealthHandler.Check)
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}
	app.Use(func(c *fiber.Ctx) error {
		if isAPI(c) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	msg := "Something went wrong. Please try again."
	if code < fiber.StatusInternalServerError && fe != nil {
		msg = fe.Message
	}
	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

func isAPI(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") }
