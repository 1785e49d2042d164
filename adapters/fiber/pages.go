package fiber

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/linkage/core"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	pageLogin     = "login.html"
	pageDashboard = "dashboard.html"
)

type pageData struct {
	Title    string
	LoginURL string

	User          *core.User
	Accounts      []core.AccountSummary
	ZohoEnabled   bool
	ZohoConnected bool
}

func (a *Adapter) sendPage(c fiber.Ctx, name string, data pageData) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		a.linkage.Logger.Error(c.Context(), "failed to render page", "page", name, "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
