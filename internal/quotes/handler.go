package quotes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logFailure("create quote failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, CreateQuoteResponse{ID: quote.ID, Code: quote.Code, Total: quote.Total, Status: quote.Status})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("lead_id")
	leadID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || leadID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: lead_id query parameter is required", shared.ErrValidation))
		return
	}
	list, err := h.service.ListByLead(r.Context(), leadID)
	if err != nil {
		h.logFailure("list quotes failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotes": list})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, warnings, err := h.service.Send(r.Context(), id)
	if err != nil {
		h.logFailure("send quote failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, StatusResponse{ID: quote.ID, Code: quote.Code, Status: quote.Status, Warnings: warnings})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Approve(r.Context(), id)
	if err != nil {
		h.logFailure("approve quote failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, StatusResponse{ID: quote.ID, Code: quote.Code, Status: quote.Status})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RejectQuoteRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeAndValidate(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	quote, err := h.service.Reject(r.Context(), id, req.Reason)
	if err != nil {
		h.logFailure("reject quote failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, StatusResponse{ID: quote.ID, Code: quote.Code, Status: quote.Status})
}

func (h *Handler) Expire(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Expire(r.Context(), id)
	if err != nil {
		h.logFailure("expire quote failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, StatusResponse{ID: quote.ID, Code: quote.Code, Status: quote.Status})
}

func (h *Handler) logFailure(msg string, err error) {
	if httpx.IsClientError(err) {
		h.logger.Warn(msg, slog.Any("error", err))
		return
	}
	h.logger.Error(msg, slog.Any("error", err))
}
