package handlers

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"honeydesk/internal/domain"
	applog "honeydesk/internal/log"
	"honeydesk/internal/repos"
	"honeydesk/internal/services"
)

// Opener reads stored uploads; storage.DiskStore satisfies it.
type Opener interface {
	Open(path string) (*os.File, error)
}

type AdminHandler struct {
	Reports *services.ReportService
	DB      *sqlx.DB
	Files   Opener
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	st, err := h.Reports.Overview(ctx)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load the dashboard"})
	}
	low, err := h.Reports.LowStock(ctx)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load the dashboard"})
	}
	return render(c, "dashboard", fiber.Map{
		"Stats":   st,
		"Revenue": st.Revenue.StringFixed(2),
		"Low":     low,
		"Tables":  repos.ExportTables(),
	})
}

// GET /admin/export/:table
func (h *AdminHandler) Export(c *fiber.Ctx) error {
	table := c.Params("table")
	var buf bytes.Buffer
	n, err := repos.ExportCSV(c.UserContext(), h.DB, table, &buf)
	if errors.Is(err, domain.ErrValidation) {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Unknown table"})
	}
	if err != nil {
		applog.Error(c, "admin.export.fail", err, map[string]any{"table": table})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not export"})
	}
	applog.Audit(c, "admin.export", map[string]any{"table": table, "rows": n})
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(table + ".csv")
	return c.Send(buf.Bytes())
}

// GET /admin/media/* serves stored uploads (ticket attachments, feedback
// photos, product images).
func (h *AdminHandler) Media(c *fiber.Ctx) error {
	path := c.Params("*")
	raw := strings.ToLower(path)
	if strings.Contains(raw, "..") || strings.Contains(raw, "%2e") || strings.Contains(raw, "\x00") {
		applog.Security(c, "media.traversal.block", map[string]any{"path": path})
		return c.SendStatus(fiber.StatusNotFound)
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	if !strings.HasPrefix(clean, "uploads/") {
		applog.Security(c, "media.traversal.block", map[string]any{"path": path})
		return c.SendStatus(fiber.StatusNotFound)
	}
	f, err := h.Files.Open(clean)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}
	c.Type(strings.TrimPrefix(filepath.Ext(clean), "."))
	return c.SendStream(f)
}
