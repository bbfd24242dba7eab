// Package quotes builds priced proposals from leads and tracks their approval.
package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusConverted Status = "CONVERTED"
	StatusExpired   Status = "EXPIRED"
)

// DefaultValidityDays applies when neither the request nor configuration sets one.
const DefaultValidityDays = 7

type Quote struct {
	ID              int64           `json:"id"`
	Code            string          `json:"code"`
	RegionID        int64           `json:"region_id"`
	LeadID          int64           `json:"lead_id"`
	ApplyTax        bool            `json:"apply_tax"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	AdvanceRate     decimal.Decimal `json:"advance_rate"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	Advance         decimal.Decimal `json:"advance"`
	Balance         decimal.Decimal `json:"balance"`
	Currency        string          `json:"currency"`
	ValidityDays    int             `json:"validity_days"`
	ExpiresAt       time.Time       `json:"expires_at"`
	Notes           string          `json:"notes,omitempty"`
	Status          Status          `json:"status"`
	SentAt          *time.Time      `json:"sent_at,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	ExpiredAt       *time.Time      `json:"expired_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []Item          `json:"items,omitempty"`
}

// PastExpiry reports whether the validity window has elapsed at now.
func (q Quote) PastExpiry(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

type Item struct {
	ID          int64           `json:"id"`
	QuoteID     int64           `json:"quote_id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}
