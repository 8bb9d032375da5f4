// Package web holds the server-rendered signup and login pages.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

func Templates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}
