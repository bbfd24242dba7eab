package orders

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/code/{code}", h.ShowByCode)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/assign", h.Assign)
	r.Post("/{id}/unassign", h.Unassign)
	r.Post("/{id}/schedule", h.Schedule)
	r.Post("/{id}/start", h.Start)
	r.Post("/{id}/cancel", h.Cancel)
	r.Put("/{id}/photos/{category}", h.Photos)
}
