// Package view holds the server-side HTML pages. Templates are embedded in
// the binary; each page is rendered into the "layout" template at its
// {{embed}} call.
package view

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"todolist/internal/form"

	"github.com/gofiber/template/html/v2"
)

const Layout = "layout"

//go:embed templates/*.html
var templatesFS embed.FS

var titles = map[string]string{
	"todo_list":           "My TODOs",
	"todo_form":           "New TODO",
	"todo_confirm_delete": "Delete TODO",
	"register":            "Register",
	"login":               "Log in",
	"profile":             "Profile",
	"admin_todos":         "All TODOs",
}

// New returns the fiber view engine over the embedded templates.
func New() *html.Engine {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(funcs)
	return engine
}

// Title is the default document title of page name.
func Title(name string) string {
	return titles[name]
}

var funcs = template.FuncMap{
	"fieldErrors": func(errs form.Errors, field string) []string {
		return errs[field]
	},
	"nonFieldErrors": func(errs form.Errors) []string {
		return errs[form.NonFieldErrors]
	},
	"datetime": func(t time.Time) string {
		return t.Local().Format("Jan 2, 2006, 15:04")
	},
	"yesno": func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	},
}
