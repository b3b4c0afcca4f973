// internal/app/features/ledger/routes.go
package ledgerfeature

import "github.com/go-chi/chi/v5"

// Routes returns the router for the API error pages.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{requestID}", h.ServeDetail)

	return r
}
