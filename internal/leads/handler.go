package leads

import (
	"log/slog"
	"net/http"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/httpx"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	region, err := regions.FromRequest(r.Context())
	if err != nil {
		h.logger.Error("region missing from request context")
		httpx.RespondError(w, err)
		return
	}
	lead, err := h.service.Create(r.Context(), region, req)
	if err != nil {
		h.logFailure("create lead failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, CreateLeadResponse{ID: lead.ID, Code: lead.Code, Status: lead.Status})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := shared.PageFromQuery(q)
	req := ListLeadsRequest{Page: page, PerPage: perPage}
	if region, ok := regions.FromContext(r.Context()); ok && q.Get("all_regions") != "1" {
		req.RegionID = region.ID
	}
	if status := q.Get("status"); status != "" {
		s := Status(status)
		req.Status = &s
	}
	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logFailure("list leads failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"leads":      list,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lead, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lead, err := h.service.MarkContacted(r.Context(), id)
	if err != nil {
		h.logFailure("contact lead failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) logFailure(msg string, err error) {
	if httpx.IsClientError(err) {
		h.logger.Warn(msg, slog.Any("error", err))
		return
	}
	h.logger.Error(msg, slog.Any("error", err))
}
