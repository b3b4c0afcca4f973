// internal/app/features/history/routes.go
package historyfeature

import "github.com/go-chi/chi/v5"

// Routes returns the router for the run history.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeDetail)
	r.Get("/{id}/curve.csv", h.ServeCSV)
	r.Post("/{id}/load", h.HandleLoad)
	r.Post("/{id}/delete", h.HandleDelete)

	return r
}
