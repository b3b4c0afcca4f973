// internal/app/features/about/about.go
package about

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/stratasim/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasim/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
)

// Handler serves the About page.
type Handler struct{}

// NewHandler creates an About handler.
func NewHandler() *Handler {
	return &Handler{}
}

type aboutData struct {
	viewdata.BaseVM
	Heading string
	Content template.HTML
}

// Routes returns the router for /about.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeAbout)
	return r
}

// ServeAbout handles GET /about. For htmx requests only the dialog body is
// returned.
func (h *Handler) ServeAbout(w http.ResponseWriter, r *http.Request) {
	settings := viewdata.Settings()

	data := aboutData{
		BaseVM:  viewdata.NewBaseVM(r, settings.AboutTitle, "/"),
		Heading: settings.AboutTitle,
		Content: htmlsanitize.PrepareForDisplay(settings.AboutHTML),
	}

	if r.Header.Get("HX-Request") == "true" {
		templates.RenderSnippet(w, "about_content", data)
		return
	}
	templates.Render(w, r, "about/show", data)
}
