// internal/app/features/workbench/templates.go
package workbenchfeature

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "workbench",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
