package warranty

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.File)
	r.Get("/code/{code}", h.ShowByCode)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/review", h.Review)
	r.Post("/{id}/coverage", h.Coverage)
	r.Post("/{id}/repair", h.Repair)
	r.Post("/{id}/resolve", h.Resolve)
}

// MountPublicRoutes exposes customer intake and lookup by code.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/warranty", h.FilePublic)
	r.Get("/warranty/{code}", h.ShowByCode)
}
