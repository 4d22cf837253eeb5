package clients

import "github.com/go-chi/chi/v5"

// MountRoutes registers the client endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/clients", h.list)
	r.Post("/clients", h.create)
	r.Get("/clients/export.xlsx", h.export)
	r.Post("/clients/delete", h.delete)
	r.Get("/clients/{id}", h.get)
	r.Put("/clients/{id}", h.update)
}
