package ledger

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/payments", h.registerPayment)
	r.Get("/payments", h.listPayments)
	r.Get("/customers/{customerID}/debt", h.debt)
	r.Post("/customers/{customerID}/recalculate", h.recalculate)
	r.Get("/customers/{customerID}/statement", h.statement)
}
