// Package orders turns approved quotes into assignable, billable work.
package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/quotes"
)

type Status string

const (
	StatusAdvancePending Status = "ADVANCE_PENDING"
	StatusAdvancePaid    Status = "ADVANCE_PAID"
	StatusScheduled      Status = "SCHEDULED"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusClosed         Status = "CLOSED"
	StatusCancelled      Status = "CANCELLED"
)

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusAdvancePending, StatusAdvancePaid, StatusScheduled, StatusInProgress, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the order accepts no further work changes.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// Open lists every status from which an order can still be cancelled.
var Open = []Status{StatusAdvancePending, StatusAdvancePaid, StatusScheduled, StatusInProgress}

// Active lists the statuses after the advance was paid and before closing.
var Active = []Status{StatusAdvancePaid, StatusScheduled, StatusInProgress}

type PhotoCategory string

const (
	PhotosBefore PhotoCategory = "before"
	PhotosDuring PhotoCategory = "during"
	PhotosAfter  PhotoCategory = "after"
)

func (c PhotoCategory) Valid() bool {
	return c == PhotosBefore || c == PhotosDuring || c == PhotosAfter
}

func (c PhotoCategory) column() string {
	return "photos_" + string(c)
}

type Order struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	RegionID     int64           `json:"region_id"`
	QuoteID      int64           `json:"quote_id"`
	LeadID       int64           `json:"lead_id"`
	WorkerID     *int64          `json:"worker_id,omitempty"`
	Total        decimal.Decimal `json:"total"`
	Advance      decimal.Decimal `json:"advance"`
	Balance      decimal.Decimal `json:"balance"`
	WorkerCost   decimal.Decimal `json:"worker_cost"`
	Margin       decimal.Decimal `json:"margin"`
	Status       Status          `json:"status"`
	ScheduledFor *time.Time      `json:"scheduled_for,omitempty"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason *string         `json:"cancel_reason,omitempty"`
	PhotosBefore []string        `json:"photos_before"`
	PhotosDuring []string        `json:"photos_during"`
	PhotosAfter  []string        `json:"photos_after"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SourceQuote is the slice of a quote an order is materialized from.
type SourceQuote struct {
	ID       int64
	Code     string
	RegionID int64
	LeadID   int64
	Status   quotes.Status
	Total    decimal.Decimal
	Advance  decimal.Decimal
	Balance  decimal.Decimal
}

// Change describes a guarded status transition.
type Change struct {
	From         []Status
	To           Status
	At           time.Time
	ScheduledFor *time.Time
	Reason       *string
}
