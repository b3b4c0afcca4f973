// internal/app/features/simapi/routes.go
package simapi

import "github.com/go-chi/chi/v5"

// Routes returns the JSON API router. Mount it under /api.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/params", h.ServeParams)
	r.Post("/run", h.HandleRun)
	return r
}
