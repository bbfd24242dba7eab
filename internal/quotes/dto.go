package quotes

import (
	"github.com/shopspring/decimal"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

type CreateQuoteRequest struct {
	LeadID       int64               `json:"lead_id" validate:"required,gt=0"`
	Items        []CreateItemRequest `json:"items" validate:"required,min=1,dive"`
	ApplyTax     bool                `json:"apply_tax"`
	ValidityDays int                 `json:"validity_days" validate:"omitempty,gte=1,lte=90"`
	Notes        string              `json:"notes" validate:"max=2000"`
}

type CreateItemRequest struct {
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

type RejectQuoteRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type CreateQuoteResponse struct {
	ID     int64           `json:"id"`
	Code   string          `json:"code"`
	Total  decimal.Decimal `json:"total"`
	Status Status          `json:"status"`
}

type StatusResponse struct {
	ID       int64           `json:"id"`
	Code     string          `json:"code"`
	Status   Status          `json:"status"`
	Warnings shared.Warnings `json:"warnings,omitempty"`
}
