package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/orders"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

type RecordPaymentRequest struct {
	OrderID   int64           `json:"order_id" validate:"required,gt=0"`
	Type      Type            `json:"type" validate:"required,oneof=ADVANCE BALANCE ADDITIONAL"`
	Method    string          `json:"method" validate:"required,oneof=cash transfer card deposit"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Reference string          `json:"reference" validate:"max=120"`
	PaidAt    *time.Time      `json:"paid_at"`
}

// ClientPaymentRequest is a payment reported by the customer with a receipt.
type ClientPaymentRequest struct {
	Type       Type            `json:"type" validate:"required,oneof=ADVANCE BALANCE ADDITIONAL"`
	Method     string          `json:"method" validate:"required,oneof=cash transfer card deposit"`
	Amount     decimal.Decimal `json:"amount" validate:"gt=0"`
	Reference  string          `json:"reference" validate:"max=120"`
	ReceiptURL string          `json:"receipt_url" validate:"required,url,max=500"`
}

type RecordPaymentResponse struct {
	ID             int64           `json:"id"`
	Validated      bool            `json:"validated"`
	NewOrderStatus orders.Status   `json:"new_order_status"`
	Warnings       shared.Warnings `json:"warnings,omitempty"`
}

type RecordPayoutRequest struct {
	WorkerID int64           `json:"worker_id" validate:"required,gt=0"`
	OrderID  *int64          `json:"order_id" validate:"omitempty,gt=0"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	Method   string          `json:"method" validate:"required,oneof=cash transfer card deposit"`
	Notes    string          `json:"notes" validate:"max=500"`
}

// Result is the outcome of a payment that may have moved its order.
type Result struct {
	Payment     *Payment
	OrderStatus orders.Status
	Warnings    shared.Warnings
}
