package customers

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/next-code", h.suggestCode)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
}
