package handlers

import (
	"context"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"honeydesk/internal/flow"
	applog "honeydesk/internal/log"
)

// EventHandler consumes inbound chat events; *bot.Bot satisfies it.
type EventHandler interface {
	Handle(ctx context.Context, ev flow.Event) error
}

// Stager stores a received file and returns the reference flows attach.
type Stager interface {
	Stage(filename string, r io.Reader) (string, error)
}

type WebhookHandler struct {
	Bot   EventHandler
	Files Stager
}

var check = validator.New()

// EventRequest is the relay's JSON body for text and button events.
type EventRequest struct {
	UserID   string `json:"user_id" form:"user_id" validate:"required,max=64"`
	Username string `json:"username" form:"username" validate:"max=64"`
	FullName string `json:"full_name" form:"full_name" validate:"max=128"`
	Kind     string `json:"kind" form:"kind" validate:"required,oneof=text button file"`
	Text     string `json:"text" form:"text" validate:"max=4096"`
}

// POST /api/v1/events
func (h *WebhookHandler) Event(c *fiber.Ctx) error {
	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.Kind == "file" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "files go to /api/v1/events/file"})
	}
	if err := check.Struct(req); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"route": "events"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event"})
	}
	ev := flow.Text(req.UserID, req.Username, req.Text)
	if req.Kind == "button" {
		ev = flow.Button(req.UserID, req.Username, req.Text)
	}
	ev.FullName = req.FullName
	return h.dispatch(c, ev)
}

// POST /api/v1/events/file (multipart: user_id, username, full_name, file)
func (h *WebhookHandler) File(c *fiber.Ctx) error {
	req := EventRequest{
		UserID:   c.FormValue("user_id"),
		Username: c.FormValue("username"),
		FullName: c.FormValue("full_name"),
		Kind:     "file",
	}
	if err := check.Struct(req); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"route": "events/file"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event"})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unreadable file"})
	}
	defer f.Close()

	ref, err := h.Files.Stage(fh.Filename, f)
	if err != nil {
		applog.Error(c, "webhook.stage.fail", err, map[string]any{"user_id": req.UserID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not store file"})
	}
	ev := flow.File(req.UserID, req.Username, ref, fh.Filename)
	ev.FullName = req.FullName
	return h.dispatch(c, ev)
}

func (h *WebhookHandler) dispatch(c *fiber.Ctx, ev flow.Event) error {
	if err := h.Bot.Handle(c.UserContext(), ev); err != nil {
		applog.Error(c, "webhook.handle.fail", err, map[string]any{"user_id": ev.UserID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not process event"})
	}
	return c.JSON(fiber.Map{"ok": true})
}
