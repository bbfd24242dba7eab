package leads

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/contact", h.Contact)
}

// MountPublicRoutes exposes customer-facing intake.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/leads", h.Create)
}
