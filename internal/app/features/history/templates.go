// internal/app/features/history/templates.go
package historyfeature

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "history",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
