// Package reporting aggregates lifecycle activity for the operator dashboard.
// Figures are computed from live tables on every call.
package reporting

import "github.com/shopspring/decimal"

type Summary struct {
	Range          Range               `json:"range"`
	RegionID       int64               `json:"region_id,omitempty"`
	Leads          int                 `json:"leads"`
	Orders         int                 `json:"orders"`
	ClosedOrders   int                 `json:"closed_orders"`
	ConversionRate decimal.Decimal     `json:"conversion_rate"`
	Revenue        decimal.Decimal     `json:"revenue"`
	AvgCloseHours  decimal.Decimal     `json:"avg_close_hours"`
	Workers        []WorkerCompletions `json:"workers"`
	Regions        []RegionDemand      `json:"regions"`
	TopServices    []ServiceDemand     `json:"top_services"`
}

type WorkerCompletions struct {
	WorkerID  int64  `json:"worker_id"`
	Name      string `json:"name"`
	Completed int    `json:"completed"`
}

type RegionDemand struct {
	RegionID int64  `json:"region_id"`
	Code     string `json:"code,omitempty"`
	Name     string `json:"name,omitempty"`
	Leads    int    `json:"leads"`
}

type ServiceDemand struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Leads int    `json:"leads"`
}

// ClosedStats aggregates orders that closed inside the range.
type ClosedStats struct {
	Count           int
	Revenue         decimal.Decimal
	AvgCloseSeconds float64
}
