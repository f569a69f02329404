package rent

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the rent lookup under /rent.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/rent", func(r chi.Router) {
		r.Get("/estimate", h.Options)
		r.Post("/estimate", h.Estimate)
	})
}
