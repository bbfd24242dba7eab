package warranty

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

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

func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	var req FileWarrantyRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, warnings, err := h.service.File(r.Context(), req)
	if err != nil {
		h.logFailure("file warranty failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, FileWarrantyResponse{ID: c.ID, Code: c.Code, Status: c.Status, Warnings: warnings})
}

func (h *Handler) FilePublic(w http.ResponseWriter, r *http.Request) {
	var req PublicFileRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	region, err := regions.FromRequest(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, _, err := h.service.FilePublic(r.Context(), region.ID, req)
	if err != nil {
		h.logFailure("public warranty failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, FileWarrantyResponse{ID: c.ID, Code: c.Code, Status: c.Status})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.URL.Query().Get("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: order_id query parameter is required", shared.ErrValidation))
		return
	}
	list, err := h.service.ListByOrder(r.Context(), orderID)
	if err != nil {
		h.logFailure("list warranty cases failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cases": list})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logFailure("get warranty case failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) ShowByCode(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.logFailure("warranty lookup failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respond(w, "start review failed")(h.service.StartReview(r.Context(), id))
}

func (h *Handler) Coverage(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CoverageRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respond(w, "set coverage failed")(h.service.SetCoverage(r.Context(), id, *req.Covered, req.Reason))
}

func (h *Handler) Repair(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RepairRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeAndValidate(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	h.respond(w, "start repair failed")(h.service.StartRepair(r.Context(), id, req.Note))
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ResolveRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respond(w, "resolve warranty failed")(h.service.Resolve(r.Context(), id, req.Resolution))
}

func (h *Handler) respond(w http.ResponseWriter, msg string) func(*Case, error) {
	return func(c *Case, err error) {
		if err != nil {
			h.logFailure(msg, err)
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, c)
	}
}

func (h *Handler) logFailure(msg string, err error) {
	if httpx.IsClientError(err) {
		h.logger.Warn(msg, slog.Any("error", err))
		return
	}
	h.logger.Error(msg, slog.Any("error", err))
}
