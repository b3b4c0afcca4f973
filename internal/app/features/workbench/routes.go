// internal/app/features/workbench/routes.go
package workbenchfeature

import "github.com/go-chi/chi/v5"

// Routes returns the router for the workbench: the parameter form, one
// endpoint per field edit, the run action and reset.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeIndex)
	r.Get("/results", h.ServeResults)
	r.Post("/params/{key}", h.HandleEdit)
	r.Post("/run", h.HandleRun)
	r.Post("/reset", h.HandleReset)

	return r
}
