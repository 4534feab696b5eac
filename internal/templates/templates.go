// Package templates holds the embedded HTML pages and their render helper.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed html/*.html
var files embed.FS

var pages = template.Must(template.ParseFS(files, "html/*.html"))

// Render executes the named page with data and returns the HTML.
func Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
