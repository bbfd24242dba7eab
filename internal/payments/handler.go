package payments

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

// IdempotencyHeader carries the client key that makes payment creation replay-safe.
const IdempotencyHeader = "Idempotency-Key"

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.Record(r.Context(), req, r.Header.Get(IdempotencyHeader))
	if err != nil {
		h.logFailure("record payment failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, RecordPaymentResponse{
		ID: res.Payment.ID, Validated: res.Payment.Validated, NewOrderStatus: res.OrderStatus, Warnings: res.Warnings,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.URL.Query().Get("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: order_id query parameter is required", shared.ErrValidation))
		return
	}
	list, err := h.service.ListByOrder(r.Context(), orderID)
	if err != nil {
		h.logFailure("list payments failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": list})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payment, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.Validate(r.Context(), id)
	if err != nil {
		h.logFailure("validate payment failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, RecordPaymentResponse{
		ID: res.Payment.ID, Validated: true, NewOrderStatus: res.OrderStatus, Warnings: res.Warnings,
	})
}

func (h *Handler) ReportClient(w http.ResponseWriter, r *http.Request) {
	var req ClientPaymentRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	region, err := regions.FromRequest(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payment, err := h.service.ReportClient(r.Context(), region.ID, chi.URLParam(r, "code"), req)
	if err != nil {
		h.logFailure("client payment failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"id": payment.ID, "validated": payment.Validated})
}

func (h *Handler) RecordPayout(w http.ResponseWriter, r *http.Request) {
	var req RecordPayoutRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	payout, err := h.service.RecordPayout(r.Context(), req)
	if err != nil {
		h.logFailure("record payout failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payout)
}

func (h *Handler) Payouts(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListPayouts(r.Context(), id)
	if err != nil {
		h.logFailure("list payouts failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payouts": list})
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	balance, err := h.service.Balance(r.Context(), id)
	if err != nil {
		h.logFailure("worker balance failed", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) logFailure(msg string, err error) {
	if httpx.IsClientError(err) {
		h.logger.Warn(msg, slog.Any("error", err))
		return
	}
	h.logger.Error(msg, slog.Any("error", err))
}
