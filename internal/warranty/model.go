// Package warranty tracks post-service claims against closed orders.
package warranty

import "time"

type Status string

const (
	StatusReported Status = "REPORTED"
	StatusInReview Status = "IN_REVIEW"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusInRepair Status = "IN_REPAIR"
	StatusResolved Status = "RESOLVED"
)

type Case struct {
	ID              int64      `json:"id"`
	Code            string     `json:"code"`
	OrderID         int64      `json:"order_id"`
	CustomerReport  string     `json:"customer_report"`
	Photos          []string   `json:"photos"`
	Status          Status     `json:"status"`
	Covered         *bool      `json:"covered,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	RepairNote      *string    `json:"repair_note,omitempty"`
	Resolution      *string    `json:"resolution,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Update carries the fields a transition writes. Nil fields are left alone.
type Update struct {
	Covered         *bool
	RejectionReason *string
	RepairNote      *string
	Resolution      *string
	ResolvedAt      *time.Time
}

// View is a case together with the order it covers and its vigency.
type View struct {
	Case
	OrderCode string  `json:"order_code"`
	Vigency   Vigency `json:"vigency"`
}
