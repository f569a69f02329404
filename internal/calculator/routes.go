package calculator

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the BRRRR calculator under the /calculator prefix.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/calculator", func(r chi.Router) {
		r.Get("/brrrr", h.Page)
		r.Post("/brrrr", h.Calculate)
	})
}
