package payments

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Record)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/validate", h.Validate)
}

func (h *Handler) MountPayoutRoutes(r chi.Router) {
	r.Post("/", h.RecordPayout)
}

// MountWorkerRoutes adds ledger views under /workers.
func (h *Handler) MountWorkerRoutes(r chi.Router) {
	r.Get("/{id}/balance", h.Balance)
	r.Get("/{id}/payouts", h.Payouts)
}

func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/orders/{code}/payments", h.ReportClient)
}
