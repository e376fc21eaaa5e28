// Package web embeds the admin dashboard templates.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	html "github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templates embed.FS

// Views returns the template engine over the embedded templates, or over dir
// when set so templates can be edited without a rebuild.
func Views(dir string) *html.Engine {
	if dir != "" {
		e := html.New(dir, ".html")
		e.Reload(true)
		return e
	}
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}
