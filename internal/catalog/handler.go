package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{slug}", h.Show)
	r.Put("/{slug}", h.Update)
	r.Delete("/{slug}", h.Deactivate)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.List(r.Context(), r.URL.Query().Get("all") != "1")
	if err != nil {
		h.logger.Error("list services failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"services": services})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	svc, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("create service failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, svc)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	svc, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, svc)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateServiceRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	svc, err := h.service.Update(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		h.logger.Warn("update service failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, svc)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	svc, err := h.service.Deactivate(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.logger.Warn("deactivate service failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, svc)
}
