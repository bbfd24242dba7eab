// Package payments keeps the client payment ledger that drives order status,
// and the worker payout ledger that does not.
package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeAdvance    Type = "ADVANCE"
	TypeBalance    Type = "BALANCE"
	TypeAdditional Type = "ADDITIONAL"
)

func (t Type) Valid() bool {
	return t == TypeAdvance || t == TypeBalance || t == TypeAdditional
}

// Source tells who entered a payment.
type Source string

const (
	SourceOperator Source = "OPERATOR"
	SourceClient   Source = "CLIENT"
)

// Methods accepted for payments and payouts.
var Methods = []string{"cash", "transfer", "card", "deposit"}

type Payment struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	Type        Type            `json:"type"`
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference,omitempty"`
	ReceiptURL  string          `json:"receipt_url,omitempty"`
	Source      Source          `json:"source"`
	Validated   bool            `json:"validated"`
	ValidatedBy *string         `json:"validated_by,omitempty"`
	ValidatedAt *time.Time      `json:"validated_at,omitempty"`
	PaidAt      time.Time       `json:"paid_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Payout struct {
	ID        int64           `json:"id"`
	WorkerID  int64           `json:"worker_id"`
	OrderID   *int64          `json:"order_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Notes     string          `json:"notes,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// WorkerBalance is what a worker earned on closed orders against what was paid out.
type WorkerBalance struct {
	WorkerID int64           `json:"worker_id"`
	Earned   decimal.Decimal `json:"earned"`
	Paid     decimal.Decimal `json:"paid"`
	Pending  decimal.Decimal `json:"pending"`
}
