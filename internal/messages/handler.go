package messages

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/httpx"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
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
	r.Post("/generate", h.Generate)
}

// Generate runs text generation inline. Upstream failures answer 502.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	msg, err := h.service.Generate(r.Context(), notify.Event{Kind: req.Kind, Entity: req.Entity, EntityID: req.EntityID})
	if err != nil {
		if httpx.IsClientError(err) {
			h.logger.Warn("generate message failed", slog.Any("error", err))
		} else {
			h.logger.Error("generate message failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, msg)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := strconv.ParseInt(q.Get("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: id query parameter is required", shared.ErrValidation))
		return
	}
	list, err := h.service.List(r.Context(), q.Get("entity"), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"messages": list})
}
