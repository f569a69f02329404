package property

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the saved-properties endpoints under /properties.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/properties", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/lookup", h.Lookup)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/delete", h.Delete)
	})
}
