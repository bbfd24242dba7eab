package orders

import (
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logFailure("create order failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, CreateOrderResponse{ID: order.ID, Code: order.Code, Margin: order.Margin, Status: order.Status})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := shared.PageFromQuery(q)
	req := ListOrdersRequest{Page: page, PerPage: perPage}
	if region, ok := regions.FromContext(r.Context()); ok && q.Get("all_regions") != "1" {
		req.RegionID = region.ID
	}
	if raw := q.Get("worker_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			req.WorkerID = id
		}
	}
	if status := q.Get("status"); status != "" {
		s := Status(status)
		req.Status = &s
	}
	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logFailure("list orders failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"orders":     list,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) ShowByCode(w http.ResponseWriter, r *http.Request) {
	region, err := regions.FromRequest(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.GetByCode(r.Context(), region.ID, chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req AssignWorkerRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respond(w, "assign worker failed")(h.service.AssignWorker(r.Context(), id, req))
}

func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respond(w, "unassign worker failed")(h.service.UnassignWorker(r.Context(), id))
}

func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ScheduleOrderRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respond(w, "schedule order failed")(h.service.Schedule(r.Context(), id, req.ScheduledFor))
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respond(w, "start order failed")(h.service.Start(r.Context(), id))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CancelOrderRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respond(w, "cancel order failed")(h.service.Cancel(r.Context(), id, req.Reason))
}

func (h *Handler) Photos(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdatePhotosRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	category := PhotoCategory(chi.URLParam(r, "category"))
	h.respond(w, "update photos failed")(h.service.UpdatePhotos(r.Context(), id, category, req.URLs))
}

func (h *Handler) respond(w http.ResponseWriter, msg string) func(*Order, error) {
	return func(order *Order, err error) {
		if err != nil {
			h.logFailure(msg, err)
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, order)
	}
}

func (h *Handler) logFailure(msg string, err error) {
	if httpx.IsClientError(err) {
		h.logger.Warn(msg, slog.Any("error", err))
		return
	}
	h.logger.Error(msg, slog.Any("error", err))
}
