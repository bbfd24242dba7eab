package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	QuoteID    int64           `json:"quote_id" validate:"required,gt=0"`
	WorkerID   *int64          `json:"worker_id" validate:"omitempty,gt=0"`
	WorkerCost decimal.Decimal `json:"worker_cost" validate:"gte=0"`
}

type CreateOrderResponse struct {
	ID     int64           `json:"id"`
	Code   string          `json:"code"`
	Margin decimal.Decimal `json:"margin"`
	Status Status          `json:"status"`
}

// AssignWorkerRequest sets the worker. WorkerCost, when present, replaces
// the cost and recomputes the margin.
type AssignWorkerRequest struct {
	WorkerID   int64            `json:"worker_id" validate:"required,gt=0"`
	WorkerCost *decimal.Decimal `json:"worker_cost"`
}

type ScheduleOrderRequest struct {
	ScheduledFor time.Time `json:"scheduled_for" validate:"required"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type UpdatePhotosRequest struct {
	URLs []string `json:"urls" validate:"max=30,dive,url"`
}

type ListOrdersRequest struct {
	RegionID int64
	WorkerID int64
	Status   *Status
	Page     int
	PerPage  int
}
