package billing

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/preview", h.preview)
	r.Post("/invoices", h.save)
	r.Get("/invoices", h.list)
	r.Get("/invoices/{id}", h.get)
}
